package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(ordersCollection)}
}

func (r *OrderRepository) ByID(ctx context.Context, id domainorders.OrderID) (*domainorders.Order, error) {
	var doc orderDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domainorders.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) Insert(ctx context.Context, o *domainorders.Order) error {
	doc := newOrderDocument(o)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if isConflict(err) {
			return domainorders.ErrConcurrentUpdate
		}
		return err
	}
	o.Version = doc.Version
	return nil
}

func (r *OrderRepository) Save(ctx context.Context, o *domainorders.Order) error {
	doc := newOrderDocument(o)
	doc.Version = o.Version + 1
	res, err := r.col.UpdateOne(ctx, versionFilter(doc.ID, o.Version), bson.M{"$set": doc})
	if err != nil {
		if isConflict(err) {
			return domainorders.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domainorders.ErrConcurrentUpdate
	}
	o.Version = doc.Version
	return nil
}

// ActiveOverlapping finds active orders whose inclusive date range meets p.
func (r *OrderRepository) ActiveOverlapping(ctx context.Context, listingID domainlistings.ListingID, p period.Period) ([]*domainorders.Order, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"is_active":  true,
		"start_date": bson.M{"$lte": p.End},
		"end_date":   bson.M{"$gte": p.Start},
	}
	return r.find(ctx, filter, nil)
}

func (r *OrderRepository) ListByRenter(ctx context.Context, renter string) ([]*domainorders.Order, error) {
	return r.find(ctx, bson.M{"renter": renter}, nil)
}

func (r *OrderRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID, status domainorders.Status) ([]*domainorders.Order, error) {
	filter := bson.M{"owner": string(owner)}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.find(ctx, filter, nil)
}

func (r *OrderRepository) List(ctx context.Context, f domainorders.ListFilter) (domainorders.Page, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.ListingID != "" {
		filter["listing_id"] = string(f.ListingID)
	}
	if f.UserID != "" {
		filter["$or"] = bson.A{bson.M{"renter": f.UserID}, bson.M{"owner": f.UserID}}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainorders.Page{}, err
	}
	opts := options.Find().SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return domainorders.Page{}, err
	}
	return domainorders.Page{Items: items, Total: int(total)}, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainorders.Order, error) {
	if opts == nil {
		opts = options.Find()
	}
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainorders.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

type orderDocument struct {
	ID            string    `bson:"_id"`
	Renter        string    `bson:"renter"`
	ListingID     string    `bson:"listing_id"`
	Owner         string    `bson:"owner"`
	ListingName   string    `bson:"listing_name"`
	StartDate     time.Time `bson:"start_date"`
	EndDate       time.Time `bson:"end_date"`
	RentalDays    int       `bson:"rental_days,omitempty"`
	Subtotal      int64     `bson:"subtotal,omitempty"`
	PlatformFee   int64     `bson:"platform_fee,omitempty"`
	InsuranceFee  int64     `bson:"insurance_fee,omitempty"`
	TotalPrice    int64     `bson:"total_price"`
	Status        string    `bson:"status"`
	PaymentStatus string    `bson:"payment_status"`
	IsActive      bool      `bson:"is_active"`
	Note          string    `bson:"note,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
	Version       int64     `bson:"version"`
}

func newOrderDocument(o *domainorders.Order) orderDocument {
	return orderDocument{
		ID:            string(o.ID),
		Renter:        o.Renter,
		ListingID:     string(o.ListingID),
		Owner:         string(o.Owner),
		ListingName:   o.ListingName,
		StartDate:     o.Period.Start,
		EndDate:       o.Period.End,
		RentalDays:    o.RentalDays,
		Subtotal:      o.Fees.Subtotal,
		PlatformFee:   o.Fees.PlatformFee,
		InsuranceFee:  o.Fees.InsuranceFee,
		TotalPrice:    o.Fees.TotalPrice,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		IsActive:      o.IsActive,
		Note:          o.Note,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Version:       o.Version,
	}
}

// toDomain decodes the document and back-fills fee fields older records lack.
func (d orderDocument) toDomain() *domainorders.Order {
	o := &domainorders.Order{
		ID:          domainorders.OrderID(d.ID),
		Renter:      d.Renter,
		ListingID:   domainlistings.ListingID(d.ListingID),
		Owner:       domainlistings.OwnerID(d.Owner),
		ListingName: d.ListingName,
		Period:      period.Period{Start: d.StartDate.UTC(), End: d.EndDate.UTC()},
		RentalDays:  d.RentalDays,
		Fees: fees.Breakdown{
			Subtotal:     d.Subtotal,
			PlatformFee:  d.PlatformFee,
			InsuranceFee: d.InsuranceFee,
			TotalPrice:   d.TotalPrice,
		},
		Status:        domainorders.Status(d.Status),
		PaymentStatus: domainorders.PaymentStatus(d.PaymentStatus),
		IsActive:      d.IsActive,
		Note:          d.Note,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		Version:       d.Version,
	}
	o.Normalize()
	return o
}
