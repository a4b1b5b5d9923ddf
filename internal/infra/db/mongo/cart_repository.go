package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var errCartVersion = errs.Conflict("cart was modified concurrently")

type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(cartsCollection)}
}

func (r *CartRepository) ByUser(ctx context.Context, userID string) (*domaincart.Cart, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *CartRepository) ByID(ctx context.Context, id domaincart.CartID) (*domaincart.Cart, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *CartRepository) findOne(ctx context.Context, filter bson.M) (*domaincart.Cart, error) {
	var doc cartDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domaincart.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domaincart.Cart) error {
	doc := newCartDocument(c)
	filter := bson.M{"_id": doc.ID, "version": c.Version}
	doc.Version = c.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if isConflict(err) {
			return errCartVersion
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errCartVersion
	}
	c.Version = doc.Version
	return nil
}

type cartDocument struct {
	ID        string             `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Items     []cartItemDocument `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
	Version   int64              `bson:"version"`
}

type cartItemDocument struct {
	ID         string    `bson:"id"`
	ListingID  string    `bson:"listing_id"`
	RentalDays int       `bson:"rental_days"`
	AddedAt    time.Time `bson:"added_at"`
}

func newCartDocument(c *domaincart.Cart) cartDocument {
	items := make([]cartItemDocument, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemDocument{
			ID:         string(it.ID),
			ListingID:  string(it.ListingID),
			RentalDays: it.RentalDays,
			AddedAt:    it.AddedAt,
		})
	}
	return cartDocument{
		ID:        string(c.ID),
		UserID:    c.UserID,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   c.Version,
	}
}

func (d cartDocument) toDomain() *domaincart.Cart {
	c := &domaincart.Cart{
		ID:        domaincart.CartID(d.ID),
		UserID:    d.UserID,
		Items:     make([]domaincart.Item, 0, len(d.Items)),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}
	for _, it := range d.Items {
		c.Items = append(c.Items, domaincart.Item{
			ID:         domaincart.ItemID(it.ID),
			ListingID:  domainlistings.ListingID(it.ListingID),
			RentalDays: domaincart.ClampDays(it.RentalDays),
			AddedAt:    it.AddedAt.UTC(),
		})
	}
	return c
}
