package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

var now = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

var (
	renter = Actor{UserID: "renter-1"}
	owner  = Actor{UserID: "owner-1"}
	admin  = Actor{UserID: "admin-1", Admin: true}
	other  = Actor{UserID: "stranger"}
)

func newOrder(t *testing.T, status Status) *Order {
	t.Helper()
	o, err := New(CreateParams{
		ID:     "order-1",
		Renter: renter.UserID,
		Listing: &listings.Listing{
			ID:    "listing-1",
			Owner: listings.OwnerID(owner.UserID),
			Name:  "Camera",
		},
		Period:        period.ForDays(now, 5),
		RentalDays:    5,
		Fees:          fees.Compute(500),
		PaymentStatus: PaymentCompleted,
		Now:           now,
	})
	require.NoError(t, err)
	o.ClearEvents()
	o.Status = status
	return o
}

func TestNewRecordsRequestForOwner(t *testing.T) {
	o, err := New(CreateParams{
		ID:         "order-1",
		Renter:     "renter-1",
		Listing:    &listings.Listing{ID: "listing-1", Owner: "owner-1", Name: "Camera"},
		Period:     period.ForDays(now, 2),
		RentalDays: 2,
		Fees:       fees.Compute(200),
		Now:        now,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.IsActive)
	assert.Equal(t, listings.OwnerID("owner-1"), o.Owner)
	assert.Equal(t, PaymentPending, o.PaymentStatus)

	evs := o.Drain()
	require.Len(t, evs, 1)
	req, ok := evs[0].(OrderRequested)
	require.True(t, ok)
	assert.Equal(t, "owner-1", req.Notice.Recipient)
	assert.Equal(t, NoticeOrderRequest, req.Notice.Type)
	assert.Equal(t, "New rental request for Camera", req.Notice.Message)
}

func TestNewValidates(t *testing.T) {
	_, err := New(CreateParams{Renter: "r", Listing: &listings.Listing{ID: "l"}, Period: period.Period{Start: now, End: now.Add(-time.Hour)}, RentalDays: 1, Fees: fees.ForOrder(10), Now: now})
	require.ErrorIs(t, err, period.ErrInvalidPeriod)

	_, err = New(CreateParams{Renter: "r", Listing: &listings.Listing{ID: "l"}, Period: period.ForDays(now, 1), RentalDays: 0, Fees: fees.ForOrder(10), Now: now})
	require.ErrorIs(t, err, ErrRentalDays)
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name       string
		from       Status
		to         Status
		actor      Actor
		wantKind   errs.Kind
		wantEffect ListingEffect
		wantActive bool
	}{
		{"owner approves", StatusPending, StatusApproved, owner, "", EffectMarkRented, true},
		{"admin rejects", StatusPending, StatusRejected, admin, "", EffectRelease, false},
		{"owner completes", StatusApproved, StatusCompleted, owner, "", EffectRelease, false},
		{"renter cancels pending", StatusPending, StatusCancelled, renter, "", EffectRelease, false},
		{"renter cancels approved", StatusApproved, StatusCancelled, renter, "", EffectRelease, false},
		{"renter cannot approve", StatusPending, StatusApproved, renter, errs.KindForbidden, EffectNone, true},
		{"stranger forbidden", StatusPending, StatusCancelled, other, errs.KindForbidden, EffectNone, true},
		{"approve after reject", StatusRejected, StatusApproved, owner, errs.KindConflict, EffectNone, true},
		{"cancel completed", StatusCompleted, StatusCancelled, admin, errs.KindConflict, EffectNone, true},
		{"complete pending", StatusPending, StatusCompleted, owner, errs.KindConflict, EffectNone, true},
		{"back to pending", StatusApproved, StatusPending, admin, errs.KindConflict, EffectNone, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrder(t, tc.from)
			tr, err := o.Transition(tc.actor, tc.to, "", now.Add(time.Hour))
			if tc.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, errs.KindOf(err))
				assert.Equal(t, tc.from, o.Status, "status unchanged on error")
				assert.Empty(t, o.PendingEvents())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, o.Status)
			assert.Equal(t, tc.wantEffect, tr.Effect)
			assert.Equal(t, tc.wantActive, o.IsActive)
			assert.Len(t, o.PendingEvents(), 1)
		})
	}
}

func TestTransitionTerminalMessage(t *testing.T) {
	o := newOrder(t, StatusCancelled)
	_, err := o.Transition(owner, StatusCancelled, "", now)
	require.Error(t, err)
	assert.Equal(t, "Order is already cancelled", errs.Message(err))
}

func TestTransitionNoticeRouting(t *testing.T) {
	o := newOrder(t, StatusPending)
	_, err := o.Transition(renter, StatusCancelled, "", now)
	require.NoError(t, err)
	ev := o.Drain()[0].(OrderStatusChanged)
	assert.Equal(t, "owner-1", ev.Notice.Recipient)
	assert.Equal(t, "order_cancelled", ev.Notice.Type)
	assert.Equal(t, "Order for Camera has been cancelled by the customer", ev.Notice.Message)

	o = newOrder(t, StatusPending)
	_, err = o.Transition(admin, StatusRejected, "dates unavailable", now)
	require.NoError(t, err)
	ev = o.Drain()[0].(OrderStatusChanged)
	assert.Equal(t, "renter-1", ev.Notice.Recipient)
	assert.Equal(t, "Your order for Camera has been rejected: dates unavailable", ev.Notice.Message)
	assert.Equal(t, "dates unavailable", o.Note)
}

func TestOverlapsIgnoresInactive(t *testing.T) {
	o := newOrder(t, StatusPending)
	p := period.ForDays(now.AddDate(0, 0, 2), 1)
	assert.True(t, o.Overlaps(p))
	o.IsActive = false
	assert.False(t, o.Overlaps(p))
}

func TestNormalizeBackfillsFees(t *testing.T) {
	o := newOrder(t, StatusPending)
	o.Fees = fees.Breakdown{TotalPrice: 600}
	o.RentalDays = 0
	o.Normalize()
	assert.Equal(t, int64(500), o.Fees.Subtotal)
	assert.Equal(t, int64(50), o.Fees.InsuranceFee)
	assert.Equal(t, 5, o.RentalDays)
}
