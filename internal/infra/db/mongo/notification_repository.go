package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(notificationsCollection)}
}

// Save inserts the notification once; replays of the same id keep the stored copy.
func (r *NotificationRepository) Save(ctx context.Context, n *domainnotifications.Notification) error {
	doc := newNotificationDocument(n)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient string) ([]*domainnotifications.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, err
	}
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainnotifications.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient string) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
	return int(n), err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient string, id domainnotifications.NotificationID) (*domainnotifications.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc notificationDocument
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": string(id), "recipient": recipient},
		bson.M{"$set": bson.M{"read": true}},
		opts,
	).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, domainnotifications.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"recipient": recipient, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, recipient string, id domainnotifications.NotificationID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id), "recipient": recipient})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainnotifications.ErrNotFound
	}
	return nil
}

type notificationDocument struct {
	ID        string    `bson:"_id"`
	Recipient string    `bson:"recipient"`
	Sender    string    `bson:"sender,omitempty"`
	Type      string    `bson:"type"`
	OrderID   string    `bson:"order_id,omitempty"`
	Message   string    `bson:"message"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

func newNotificationDocument(n *domainnotifications.Notification) notificationDocument {
	return notificationDocument{
		ID:        string(n.ID),
		Recipient: n.Recipient,
		Sender:    n.Sender,
		Type:      string(n.Type),
		OrderID:   n.OrderID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (d notificationDocument) toDomain() *domainnotifications.Notification {
	return &domainnotifications.Notification{
		ID:        domainnotifications.NotificationID(d.ID),
		Recipient: d.Recipient,
		Sender:    d.Sender,
		Type:      domainnotifications.Type(d.Type),
		OrderID:   d.OrderID,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
