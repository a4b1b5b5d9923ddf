package mongo

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// Save writes the availability fields the engine owns, guarded by version.
// Catalog fields belong to listing management and are never overwritten. A
// listing at version 0 that does not exist yet is inserted whole.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	next := l.Version + 1
	res, err := r.col.UpdateOne(ctx, versionFilter(string(l.ID), l.Version), bson.M{"$set": bson.M{
		"status":         string(l.Status),
		"reserved_until": l.ReservedUntil,
		"updated_at":     l.UpdatedAt,
		"version":        next,
	}})
	if err != nil {
		if isConflict(err) {
			return domainlistings.ErrConcurrentWrite
		}
		return err
	}
	if res.MatchedCount == 0 {
		if l.Version != 0 {
			return domainlistings.ErrConcurrentWrite
		}
		doc := newListingDocument(l)
		doc.Version = next
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if isConflict(err) {
				return domainlistings.ErrConcurrentWrite
			}
			return err
		}
	}
	l.Version = next
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = string(opts.Owner)
	}
	if opts.OnlyAvailable {
		filter["status"] = string(domainlistings.StatusAvailable)
	}
	if opts.Category != "" {
		filter["category"] = bson.M{"$regex": "^" + regexp.QuoteMeta(opts.Category) + "$", "$options": "i"}
	}
	if opts.Query != "" {
		pattern := regexp.QuoteMeta(opts.Query)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"category": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domainlistings.SearchResult{}, err
	}
	items := make([]*domainlistings.Listing, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

type listingDocument struct {
	ID            string     `bson:"_id"`
	Owner         string     `bson:"owner"`
	Name          string     `bson:"name"`
	Description   string     `bson:"description,omitempty"`
	Category      string     `bson:"category,omitempty"`
	RentalRate    int64      `bson:"rental_rate"`
	Images        []string   `bson:"images,omitempty"`
	Status        string     `bson:"status"`
	ReservedUntil *time.Time `bson:"reserved_until"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	Version       int64      `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		Owner:         string(l.Owner),
		Name:          l.Name,
		Description:   l.Description,
		Category:      l.Category,
		RentalRate:    l.RentalRate,
		Images:        l.Images,
		Status:        string(l.Status),
		ReservedUntil: l.ReservedUntil,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		Version:       l.Version,
	}
}

func (d listingDocument) toDomain() *domainlistings.Listing {
	status, err := domainlistings.ParseStatus(d.Status)
	if err != nil {
		status = domainlistings.StatusUnavailable
	}
	l := &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Owner:       domainlistings.OwnerID(d.Owner),
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		RentalRate:  d.RentalRate,
		Images:      d.Images,
		Status:      status,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
	if d.ReservedUntil != nil {
		t := d.ReservedUntil.UTC()
		l.ReservedUntil = &t
	}
	return l
}
