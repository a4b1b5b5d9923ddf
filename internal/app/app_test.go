package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	carthandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/cart"
	listinghandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/listings"
	notificationhandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/notifications"
	orderhandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/orders"
	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/payments"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/storage/memory"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/validation"
)

var clockNow = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

// tickingClock advances one second per reading so events keep a stable order.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := clockNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type harness struct {
	app     *app.Application
	factory memory.Factory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dispatcher := appoutbox.NewDispatcher()
	box := memory.NewOutbox(dispatcher)
	factory := memory.Factory{Store: memory.NewStore(), Outbox: box}
	a := app.New(app.Deps{
		UoWFactory:  factory,
		Outbox:      box,
		Dispatcher:  dispatcher,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Validator:   validation.New(),
		Payments:    payments.Simulated{},
		Clock:       tickingClock(),
	})
	return &harness{app: a, factory: factory}
}

func (h *harness) listing(t *testing.T, id, owner string, rate int64) {
	t.Helper()
	ctx := context.Background()
	l, err := domainlistings.New(domainlistings.CreateParams{
		ID:         domainlistings.ListingID(id),
		Owner:      domainlistings.OwnerID(owner),
		Name:       "Item " + id,
		RentalRate: rate,
		Now:        clockNow,
	})
	require.NoError(t, err)
	unit, err := h.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, l))
	require.NoError(t, unit.Commit(ctx))
}

func (h *harness) getListing(t *testing.T, id string) dto.Listing {
	t.Helper()
	l, err := queries.Ask[listinghandlers.GetListingQuery, dto.Listing](context.Background(), h.app.Queries, listinghandlers.GetListingQuery{ID: id})
	require.NoError(t, err)
	return l
}

func (h *harness) addToCart(t *testing.T, user, listingID string, days int) string {
	t.Helper()
	res, err := commands.Dispatch[carthandlers.AddToCartCommand, *dto.AddToCartResult](context.Background(), h.app.Commands, carthandlers.AddToCartCommand{
		UserID:     user,
		ListingID:  listingID,
		RentalDays: days,
	})
	require.NoError(t, err)
	return res.Cart.ID
}

func (h *harness) checkout(cmd orderhandlers.CheckoutCommand) (*dto.CheckoutResult, error) {
	return commands.Dispatch[orderhandlers.CheckoutCommand, *dto.CheckoutResult](context.Background(), h.app.Commands, cmd)
}

func (h *harness) setStatus(user, orderID, status string) (*dto.Order, error) {
	return commands.Dispatch[orderhandlers.UpdateOrderStatusCommand, *dto.Order](context.Background(), h.app.Commands, orderhandlers.UpdateOrderStatusCommand{
		UserID:  user,
		OrderID: orderID,
		Status:  status,
	})
}

func (h *harness) notifications(t *testing.T, user string) dto.NotificationCollection {
	t.Helper()
	res, err := queries.Ask[notificationhandlers.ListQuery, dto.NotificationCollection](context.Background(), h.app.Queries, notificationhandlers.ListQuery{UserID: user})
	require.NoError(t, err)
	return res
}

func (h *harness) placeOne(t *testing.T, renter, listingID string, days int) dto.Order {
	t.Helper()
	cartID := h.addToCart(t, renter, listingID, days)
	res, err := h.checkout(orderhandlers.CheckoutCommand{UserID: renter, CartID: cartID})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	return res.Orders[0]
}

func TestCheckoutComputesFeesAndReservesListing(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)

	order := h.placeOne(t, "renter", "l-1", 5)

	assert.EqualValues(t, 500, order.Fees.Subtotal)
	assert.EqualValues(t, 50, order.Fees.PlatformFee)
	assert.EqualValues(t, 50, order.Fees.InsuranceFee)
	assert.EqualValues(t, 600, order.Fees.TotalPrice)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "completed", order.PaymentStatus)
	assert.True(t, order.IsActive)
	assert.True(t, order.StartDate.After(clockNow))
	assert.Equal(t, order.StartDate.AddDate(0, 0, 5), order.EndDate)

	l := h.getListing(t, "l-1")
	assert.Equal(t, "reserved", l.Status)
	assert.False(t, l.IsAvailable)
	require.NotNil(t, l.AvailableAfter)
	assert.Equal(t, order.EndDate, *l.AvailableAfter)

	cart, err := queries.Ask[carthandlers.GetCartQuery, dto.Cart](context.Background(), h.app.Queries, carthandlers.GetCartQuery{UserID: "renter"})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	owner := h.notifications(t, "owner")
	require.Len(t, owner.Items, 1)
	assert.Equal(t, "order_request", owner.Items[0].Type)
	assert.Equal(t, order.ID, owner.Items[0].OrderID)
}

func TestCheckoutSplitsTotalPriceProportionally(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-300", "owner", 300)
	h.listing(t, "l-700", "owner", 700)
	h.addToCart(t, "renter", "l-300", 1)
	cartID := h.addToCart(t, "renter", "l-700", 1)

	res, err := h.checkout(orderhandlers.CheckoutCommand{UserID: "renter", CartID: cartID, TotalPrice: 1200})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	subtotals := map[string]int64{}
	for _, o := range res.Orders {
		subtotals[o.Listing.ID] = o.Fees.Subtotal
	}
	assert.EqualValues(t, 360, subtotals["l-300"])
	assert.EqualValues(t, 840, subtotals["l-700"])
}

func TestConcurrentCheckoutHasSingleWinner(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	start := clockNow.AddDate(0, 0, 10)
	end := start.AddDate(0, 0, 3)
	carts := map[string]string{
		"alice": h.addToCart(t, "alice", "l-1", 3),
		"bob":   h.addToCart(t, "bob", "l-1", 3),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		failures []error
	)
	for user, cartID := range carts {
		wg.Add(1)
		go func(user, cartID string) {
			defer wg.Done()
			_, err := h.checkout(orderhandlers.CheckoutCommand{UserID: user, CartID: cartID, StartDate: &start, EndDate: &end})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			failures = append(failures, err)
		}(user, cartID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	require.Len(t, failures, 1)
	assertKind(t, failures[0], "conflict")
	assert.Contains(t, errMessage(failures[0]), "already rented for the selected period")
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	cartID := h.addToCart(t, "renter", "l-1", 1)

	_, err := h.checkout(orderhandlers.CheckoutCommand{UserID: "intruder", CartID: cartID})
	assertKind(t, err, "forbidden")

	_, err = h.checkout(orderhandlers.CheckoutCommand{UserID: "renter", CartID: "missing"})
	assertKind(t, err, "not_found")

	start, end := clockNow.AddDate(0, 0, 5), clockNow
	_, err = h.checkout(orderhandlers.CheckoutCommand{UserID: "renter", CartID: cartID, StartDate: &start, EndDate: &end})
	assertKind(t, err, "validation")

	_, err = commands.Dispatch[carthandlers.ClearCartCommand, *dto.Cart](context.Background(), h.app.Commands, carthandlers.ClearCartCommand{UserID: "renter"})
	require.NoError(t, err)
	_, err = h.checkout(orderhandlers.CheckoutCommand{UserID: "renter", CartID: cartID})
	assertKind(t, err, "validation")
}

func TestCheckoutReplaysIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	cartID := h.addToCart(t, "renter", "l-1", 2)
	cmd := orderhandlers.CheckoutCommand{UserID: "renter", CartID: cartID, IdempotencyKeyV: "key-1"}

	first, err := h.checkout(cmd)
	require.NoError(t, err)
	second, err := h.checkout(cmd)
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, first.Orders[0].ID, second.Orders[0].ID)

	mine, err := queries.Ask[orderhandlers.ListMyOrdersQuery, dto.OrderCollection](context.Background(), h.app.Queries, orderhandlers.ListMyOrdersQuery{UserID: "renter"})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
}

func TestLifecycleTransitions(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	order := h.placeOne(t, "renter", "l-1", 2)

	_, err := h.setStatus("renter", order.ID, "approved")
	assertKind(t, err, "forbidden")
	_, err = h.setStatus("stranger", order.ID, "cancelled")
	assertKind(t, err, "forbidden")

	approved, err := h.setStatus("owner", order.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "rented", h.getListing(t, "l-1").Status)

	completed, err := h.setStatus("owner", order.ID, "completed")
	require.NoError(t, err)
	assert.False(t, completed.IsActive)
	l := h.getListing(t, "l-1")
	assert.Equal(t, "available", l.Status)
	assert.Nil(t, l.AvailableAfter)

	_, err = h.setStatus("owner", order.ID, "cancelled")
	assertKind(t, err, "conflict")

	renter := h.notifications(t, "renter")
	require.Len(t, renter.Items, 2)
	assert.Equal(t, "order_completed", renter.Items[0].Type)
	assert.Equal(t, "order_approved", renter.Items[1].Type)
}

func TestApproveAfterRejectConflicts(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	order := h.placeOne(t, "renter", "l-1", 1)

	rejected, err := h.setStatus("owner", order.ID, "rejected")
	require.NoError(t, err)
	assert.False(t, rejected.IsActive)
	assert.True(t, h.getListing(t, "l-1").IsAvailable)

	_, err = h.setStatus("owner", order.ID, "approved")
	assertKind(t, err, "conflict")
}

func TestRenterCancelReleasesListingAndNotifiesOwner(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	order := h.placeOne(t, "renter", "l-1", 1)

	_, err := commands.Dispatch[orderhandlers.CancelOrderCommand, *dto.Order](context.Background(), h.app.Commands, orderhandlers.CancelOrderCommand{UserID: "owner", OrderID: order.ID})
	assertKind(t, err, "forbidden")

	cancelled, err := commands.Dispatch[orderhandlers.CancelOrderCommand, *dto.Order](context.Background(), h.app.Commands, orderhandlers.CancelOrderCommand{UserID: "renter", OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.True(t, h.getListing(t, "l-1").IsAvailable)

	owner := h.notifications(t, "owner")
	require.Len(t, owner.Items, 2)
	assert.Equal(t, "order_cancelled", owner.Items[0].Type)
	assert.Equal(t, "Order for Item l-1 has been cancelled by the customer", owner.Items[0].Message)
}

func TestBatchUpdateIsOwnerScoped(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "mine", "owner-a", 100)
	h.listing(t, "theirs", "owner-b", 100)
	a := h.placeOne(t, "renter", "mine", 1)
	b := h.placeOne(t, "renter", "theirs", 1)

	res, err := commands.Dispatch[orderhandlers.BatchUpdateOrdersCommand, *dto.BatchResult](context.Background(), h.app.Commands, orderhandlers.BatchUpdateOrdersCommand{
		UserID:   "owner-a",
		OrderIDs: []string{a.ID, b.ID, "missing"},
		Status:   "approved",
		Note:     "see you soon",
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.True(t, res.Results[0].Success)
	assert.Equal(t, "forbidden", res.Results[1].Kind)
	assert.Equal(t, "not_found", res.Results[2].Kind)

	renter := h.notifications(t, "renter")
	require.NotEmpty(t, renter.Items)
	assert.Contains(t, renter.Items[0].Message, "see you soon")

	_, err = commands.Dispatch[orderhandlers.BatchUpdateOrdersCommand, *dto.BatchResult](context.Background(), h.app.Commands, orderhandlers.BatchUpdateOrdersCommand{
		UserID: "owner-a",
		Status: "approved",
	})
	assertKind(t, err, "validation")
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	order := h.placeOne(t, "renter", "l-1", 3)

	ask := func(start, end time.Time) dto.Availability {
		res, err := queries.Ask[orderhandlers.CheckAvailabilityQuery, dto.Availability](context.Background(), h.app.Queries, orderhandlers.CheckAvailabilityQuery{
			ListingID: "l-1",
			Start:     start,
			End:       end,
		})
		require.NoError(t, err)
		return res
	}
	assert.False(t, ask(order.EndDate, order.EndDate.AddDate(0, 0, 2)).IsAvailable, "touching end date overlaps")
	assert.True(t, ask(order.EndDate.AddDate(0, 0, 1), order.EndDate.AddDate(0, 0, 2)).IsAvailable)
}

func TestNotificationReadSideIsScoped(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	h.listing(t, "l-2", "owner", 100)
	h.placeOne(t, "renter", "l-1", 1)
	h.placeOne(t, "renter", "l-2", 1)

	owner := h.notifications(t, "owner")
	require.Len(t, owner.Items, 2)
	assert.Equal(t, 2, owner.UnreadCount)
	first := owner.Items[0].ID

	_, err := commands.Dispatch[notificationhandlers.MarkReadCommand, *dto.Notification](context.Background(), h.app.Commands, notificationhandlers.MarkReadCommand{UserID: "renter", NotificationID: first})
	assertKind(t, err, "not_found")

	read, err := commands.Dispatch[notificationhandlers.MarkReadCommand, *dto.Notification](context.Background(), h.app.Commands, notificationhandlers.MarkReadCommand{UserID: "owner", NotificationID: first})
	require.NoError(t, err)
	assert.True(t, read.Read)

	count, err := queries.Ask[notificationhandlers.UnreadCountQuery, notificationhandlers.UnreadCount](context.Background(), h.app.Queries, notificationhandlers.UnreadCountQuery{UserID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)

	all, err := commands.Dispatch[notificationhandlers.MarkAllReadCommand, *notificationhandlers.MarkAllResult](context.Background(), h.app.Commands, notificationhandlers.MarkAllReadCommand{UserID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Updated)

	_, err = commands.Dispatch[notificationhandlers.DeleteCommand, struct{}](context.Background(), h.app.Commands, notificationhandlers.DeleteCommand{UserID: "owner", NotificationID: first})
	require.NoError(t, err)
	assert.Len(t, h.notifications(t, "owner").Items, 1)
}

func TestUnauthenticatedCommandsAreRejected(t *testing.T) {
	h := newHarness(t)
	_, err := commands.Dispatch[carthandlers.AddToCartCommand, *dto.AddToCartResult](context.Background(), h.app.Commands, carthandlers.AddToCartCommand{ListingID: "l-1"})
	require.Error(t, err)
	assert.Contains(t, []string{"forbidden", "validation"}, string(errs.KindOf(err)))
}

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, string(errs.KindOf(err)), err.Error())
}

func errMessage(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func TestCartLifecycle(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	h.listing(t, "l-2", "owner", 50)
	ctx := context.Background()

	h.addToCart(t, "renter", "l-1", 2)
	again, err := commands.Dispatch[carthandlers.AddToCartCommand, *dto.AddToCartResult](ctx, h.app.Commands, carthandlers.AddToCartCommand{UserID: "renter", ListingID: "l-1", RentalDays: 5})
	require.NoError(t, err)
	assert.True(t, again.AlreadyInCart)
	require.Len(t, again.Cart.Items, 1)
	assert.Equal(t, 2, again.Cart.Items[0].RentalDays)

	view, err := queries.Ask[carthandlers.GetCartQuery, dto.Cart](ctx, h.app.Queries, carthandlers.GetCartQuery{UserID: "renter"})
	require.NoError(t, err)
	assert.Equal(t, int64(200), view.Summary.Subtotal)
	assert.Equal(t, int64(240), view.Summary.TotalPrice)

	updated, err := commands.Dispatch[carthandlers.UpdateCartItemCommand, *dto.Cart](ctx, h.app.Commands, carthandlers.UpdateCartItemCommand{UserID: "renter", ItemID: view.Items[0].ID, RentalDays: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Items[0].RentalDays)
	assert.Equal(t, int64(100), updated.Summary.Subtotal)

	_, err = commands.Dispatch[carthandlers.UpdateCartItemCommand, *dto.Cart](ctx, h.app.Commands, carthandlers.UpdateCartItemCommand{UserID: "renter", ItemID: "missing", RentalDays: 3})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	removed, err := commands.Dispatch[carthandlers.RemoveCartItemCommand, *dto.Cart](ctx, h.app.Commands, carthandlers.RemoveCartItemCommand{UserID: "renter", ItemID: view.Items[0].ID})
	require.NoError(t, err)
	assert.Empty(t, removed.Items)
	assert.Zero(t, removed.Summary.TotalPrice)

	empty, err := commands.Dispatch[carthandlers.ClearCartCommand, *dto.Cart](ctx, h.app.Commands, carthandlers.ClearCartCommand{UserID: "stranger"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	h.placeOne(t, "other", "l-2", 1)
	_, err = commands.Dispatch[carthandlers.AddToCartCommand, *dto.AddToCartResult](ctx, h.app.Commands, carthandlers.AddToCartCommand{UserID: "renter", ListingID: "l-2"})
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Contains(t, errs.Message(err), "currently reserved")
}

func TestListingViewsReflectReservations(t *testing.T) {
	h := newHarness(t)
	h.listing(t, "l-1", "owner", 100)
	h.listing(t, "l-2", "owner", 50)
	ctx := context.Background()

	h.placeOne(t, "renter", "l-1", 3)

	reserved := h.getListing(t, "l-1")
	assert.False(t, reserved.IsAvailable)
	require.NotNil(t, reserved.AvailableAfter)

	free := h.getListing(t, "l-2")
	assert.True(t, free.IsAvailable)
	assert.Nil(t, free.AvailableAfter)

	all, err := queries.Ask[listinghandlers.SearchListingsQuery, dto.ListingCollection](ctx, h.app.Queries, listinghandlers.SearchListingsQuery{Query: "item"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	open, err := queries.Ask[listinghandlers.SearchListingsQuery, dto.ListingCollection](ctx, h.app.Queries, listinghandlers.SearchListingsQuery{OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, open.Items, 1)
	assert.Equal(t, "l-2", open.Items[0].ID)

	_, err = queries.Ask[listinghandlers.GetListingQuery, dto.Listing](ctx, h.app.Queries, listinghandlers.GetListingQuery{ID: "nope"})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
