package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

var errNetwork = errors.New("connection reset")

var testNow = time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func testListing(t *testing.T, version int64) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.New(domainlistings.CreateParams{
		ID:         "l-1",
		Owner:      "owner",
		Name:       "Tent",
		RentalRate: 100,
		Now:        testNow,
	})
	require.NoError(t, err)
	l.Version = version
	l.Reserve(testNow.AddDate(0, 0, 3), testNow)
	return l
}

// updateSpec returns the filter and update document of the first update statement.
func updateSpec(mt *mtest.T) (bson.Raw, bson.Raw) {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "update", evt.CommandName)
	stmt := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
	return stmt.Lookup("q").Document(), stmt.Lookup("u").Document()
}

func TestListingSave(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("record without version field is updated in place", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		l := testListing(mt.T, 0)

		require.NoError(mt, repo.Save(context.Background(), l))
		assert.Equal(mt, int64(1), l.Version)

		filter, update := updateSpec(mt)
		_, err := filter.LookupErr("$or")
		assert.NoError(mt, err)
		set := update.Lookup("$set").Document()
		assert.Equal(mt, string(domainlistings.StatusReserved), set.Lookup("status").StringValue())
		assert.Equal(mt, int64(1), set.Lookup("version").Int64())
		for _, field := range []string{"name", "owner", "rental_rate", "images"} {
			_, err := set.LookupErr(field)
			assert.Error(mt, err, field)
		}
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("new listing is inserted", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(updated(0), mtest.CreateSuccessResponse())
		l := testListing(mt.T, 0)

		require.NoError(mt, repo.Save(context.Background(), l))
		assert.Equal(mt, int64(1), l.Version)
		mt.GetStartedEvent()
		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
	})

	mt.Run("losing insert race is a conflict", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(updated(0), mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "duplicate key"}))

		err := repo.Save(context.Background(), testListing(mt.T, 0))
		assert.ErrorIs(mt, err, domainlistings.ErrConcurrentWrite)
		assert.Equal(mt, errs.KindConflict, errs.KindOf(err))
	})

	mt.Run("stale version is a conflict without insert", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(updated(0))
		l := testListing(mt.T, 2)

		err := repo.Save(context.Background(), l)
		assert.ErrorIs(mt, err, domainlistings.ErrConcurrentWrite)
		assert.Equal(mt, int64(2), l.Version)

		filter, _ := updateSpec(mt)
		assert.Equal(mt, int64(2), filter.Lookup("version").Int64())
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestOrderSaveAcceptsLegacyRecords(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("legacy order", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		legacy := bson.D{
			{Key: "_id", Value: "o-legacy"},
			{Key: "renter", Value: "renter"},
			{Key: "listing_id", Value: "l-1"},
			{Key: "owner", Value: "owner"},
			{Key: "listing_name", Value: "Tent"},
			{Key: "start_date", Value: testNow},
			{Key: "end_date", Value: testNow.AddDate(0, 0, 4)},
			{Key: "total_price", Value: int64(600)},
			{Key: "status", Value: "pending"},
			{Key: "payment_status", Value: "completed"},
			{Key: "is_active", Value: true},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+"."+ordersCollection, mtest.FirstBatch, legacy),
			updated(1),
		)

		o, err := repo.ByID(context.Background(), "o-legacy")
		require.NoError(mt, err)
		assert.Zero(mt, o.Version)
		assert.Equal(mt, int64(500), o.Fees.Subtotal)
		assert.Equal(mt, int64(50), o.Fees.PlatformFee)

		o.Status = domainorders.StatusApproved
		require.NoError(mt, repo.Save(context.Background(), o))
		assert.Equal(mt, int64(1), o.Version)

		mt.GetStartedEvent()
		filter, _ := updateSpec(mt)
		_, err = filter.LookupErr("$or")
		assert.NoError(mt, err)
	})

	mt.Run("unmatched save is a conflict", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(updated(0))
		err := repo.Save(context.Background(), &domainorders.Order{ID: "o-1", Version: 3})
		assert.ErrorIs(mt, err, domainorders.ErrConcurrentUpdate)
	})
}

func TestActiveOverlappingFilter(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inclusive range on active orders", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+ordersCollection, mtest.FirstBatch))
		p := period.Period{Start: testNow, End: testNow.AddDate(0, 0, 2)}

		found, err := repo.ActiveOverlapping(context.Background(), "l-1", p)
		require.NoError(mt, err)
		assert.Empty(mt, found)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, "l-1", filter.Lookup("listing_id").StringValue())
		assert.True(mt, filter.Lookup("is_active").Boolean())
		assert.True(mt, filter.Lookup("start_date", "$lte").Time().Equal(p.End))
		assert.True(mt, filter.Lookup("end_date", "$gte").Time().Equal(p.Start))
	})
}

func TestCommitError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"write conflict", mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}, true},
		{"transient transaction", mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}, true},
		{"other server error", mongo.CommandError{Code: 8000, Name: "AtlasError"}, false},
		{"network", errNetwork, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := commitError(tc.err)
			require.Error(t, err)
			if tc.conflict {
				assert.Equal(t, errs.KindConflict, errs.KindOf(err))
				var ce mongo.CommandError
				assert.ErrorAs(t, err, &ce)
				return
			}
			assert.Equal(t, tc.err, err)
		})
	}
	assert.NoError(t, commitError(nil))
}
