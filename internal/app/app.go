package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	carthandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/cart"
	listinghandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/listings"
	notificationhandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/notifications"
	orderhandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/middleware"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/policies"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
)

// Deps are the infrastructure pieces the application layer runs on.
type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Dispatcher  *outbox.Dispatcher
	Idempotency middleware.IdempotencyStore
	Validator   middleware.Validator
	Payments    policies.PaymentsPort
	Clock       func() time.Time
	Logger      *slog.Logger
}

type Application struct {
	Commands  commands.Bus
	Queries   queries.Bus
	Projector *notificationhandlers.Projector
}

// New registers every handler and wraps the buses with the middleware chain.
// Command order, outermost first: idempotency, outbox flush, validation,
// authorization, transaction.
func New(d Deps) *Application {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	encoder := outbox.JSONEventEncoder{}
	authorizer := middleware.RequireActor()

	// Checkout and batch updates dispatch per-item commands through the fully
	// wrapped bus, which only exists once registration is done.
	self := &lateBus{}

	commandBus := commands.NewInMemoryBus()

	placeOrder := &orderhandlers.PlaceOrderHandler{
		Payments: d.Payments,
		Outbox:   d.Outbox,
		Encoder:  encoder,
		Clock:    d.Clock,
		Logger:   d.Logger.With("handler", "orders.place"),
	}
	commands.RegisterHandler[orderhandlers.PlaceOrderCommand, *dto.Order](commandBus, placeOrder)

	checkout := &orderhandlers.CheckoutHandler{
		UoWFactory: d.UoWFactory,
		Bus:        self,
		Clock:      d.Clock,
		Logger:     d.Logger.With("handler", "orders.checkout"),
	}
	commands.RegisterHandler[orderhandlers.CheckoutCommand, *dto.CheckoutResult](commandBus, checkout)

	status := &orderhandlers.StatusHandler{
		Outbox:  d.Outbox,
		Encoder: encoder,
		Clock:   d.Clock,
		Logger:  d.Logger.With("handler", "orders.status"),
	}
	commands.RegisterHandler[orderhandlers.UpdateOrderStatusCommand, *dto.Order](commandBus, commands.HandlerFunc[orderhandlers.UpdateOrderStatusCommand, *dto.Order](status.HandleUpdate))
	commands.RegisterHandler[orderhandlers.CancelOrderCommand, *dto.Order](commandBus, commands.HandlerFunc[orderhandlers.CancelOrderCommand, *dto.Order](status.HandleCancel))

	batch := &orderhandlers.BatchUpdateHandler{Bus: self, Logger: d.Logger.With("handler", "orders.batch")}
	commands.RegisterHandler[orderhandlers.BatchUpdateOrdersCommand, *dto.BatchResult](commandBus, batch)

	cart := &carthandlers.CommandHandler{Clock: d.Clock, Logger: d.Logger.With("handler", "cart")}
	commands.RegisterHandler[carthandlers.AddToCartCommand, *dto.AddToCartResult](commandBus, commands.HandlerFunc[carthandlers.AddToCartCommand, *dto.AddToCartResult](cart.Add))
	commands.RegisterHandler[carthandlers.UpdateCartItemCommand, *dto.Cart](commandBus, commands.HandlerFunc[carthandlers.UpdateCartItemCommand, *dto.Cart](cart.Update))
	commands.RegisterHandler[carthandlers.RemoveCartItemCommand, *dto.Cart](commandBus, commands.HandlerFunc[carthandlers.RemoveCartItemCommand, *dto.Cart](cart.Remove))
	commands.RegisterHandler[carthandlers.ClearCartCommand, *dto.Cart](commandBus, commands.HandlerFunc[carthandlers.ClearCartCommand, *dto.Cart](cart.Clear))

	notices := &notificationhandlers.Handler{UoWFactory: d.UoWFactory}
	commands.RegisterHandler[notificationhandlers.MarkReadCommand, *dto.Notification](commandBus, commands.HandlerFunc[notificationhandlers.MarkReadCommand, *dto.Notification](notices.MarkRead))
	commands.RegisterHandler[notificationhandlers.MarkAllReadCommand, *notificationhandlers.MarkAllResult](commandBus, commands.HandlerFunc[notificationhandlers.MarkAllReadCommand, *notificationhandlers.MarkAllResult](notices.MarkAllRead))
	commands.RegisterHandler[notificationhandlers.DeleteCommand, struct{}](commandBus, commands.HandlerFunc[notificationhandlers.DeleteCommand, struct{}](notices.Delete))

	var commandMWs []middleware.CommandMiddleware
	if d.Idempotency != nil {
		commandMWs = append(commandMWs, middleware.Idempotency(d.Idempotency, middleware.JSONResultCodec{}))
	}
	if d.Outbox != nil {
		commandMWs = append(commandMWs, middleware.OutboxFlush(d.Outbox, d.Logger))
	}
	if d.Validator != nil {
		commandMWs = append(commandMWs, middleware.Validation(d.Validator))
	}
	commandMWs = append(commandMWs,
		middleware.Authorization(authorizer),
		middleware.Transaction(d.UoWFactory, nil),
	)
	wrapped := middleware.ChainCommands(commandBus, commandMWs...)
	self.bind(wrapped)

	queryBus := queries.NewInMemoryBus()
	orderQueries := &orderhandlers.QueryHandler{UoWFactory: d.UoWFactory, Logger: d.Logger.With("handler", "orders.queries")}
	queries.RegisterHandler[orderhandlers.CheckAvailabilityQuery, dto.Availability](queryBus, queries.HandlerFunc[orderhandlers.CheckAvailabilityQuery, dto.Availability](orderQueries.CheckAvailability))
	queries.RegisterHandler[orderhandlers.ListMyOrdersQuery, dto.OrderCollection](queryBus, queries.HandlerFunc[orderhandlers.ListMyOrdersQuery, dto.OrderCollection](orderQueries.ListMine))
	queries.RegisterHandler[orderhandlers.ListOwnerOrdersQuery, dto.OrderCollection](queryBus, queries.HandlerFunc[orderhandlers.ListOwnerOrdersQuery, dto.OrderCollection](orderQueries.ListOwner))
	queries.RegisterHandler[orderhandlers.ListAllOrdersQuery, dto.OrderCollection](queryBus, queries.HandlerFunc[orderhandlers.ListAllOrdersQuery, dto.OrderCollection](orderQueries.ListAll))
	queries.RegisterHandler[orderhandlers.FeeBreakdownQuery, dto.FeeBreakdown](queryBus, queries.HandlerFunc[orderhandlers.FeeBreakdownQuery, dto.FeeBreakdown](orderQueries.FeeBreakdown))

	cartQueries := &carthandlers.QueryHandler{UoWFactory: d.UoWFactory, Logger: d.Logger.With("handler", "cart.queries")}
	queries.RegisterHandler[carthandlers.GetCartQuery, dto.Cart](queryBus, cartQueries)

	listingQueries := &listinghandlers.QueryHandler{UoWFactory: d.UoWFactory, Logger: d.Logger.With("handler", "listings.queries")}
	queries.RegisterHandler[listinghandlers.GetListingQuery, dto.Listing](queryBus, queries.HandlerFunc[listinghandlers.GetListingQuery, dto.Listing](listingQueries.Get))
	queries.RegisterHandler[listinghandlers.SearchListingsQuery, dto.ListingCollection](queryBus, queries.HandlerFunc[listinghandlers.SearchListingsQuery, dto.ListingCollection](listingQueries.Search))

	queries.RegisterHandler[notificationhandlers.ListQuery, dto.NotificationCollection](queryBus, queries.HandlerFunc[notificationhandlers.ListQuery, dto.NotificationCollection](notices.List))
	queries.RegisterHandler[notificationhandlers.UnreadCountQuery, notificationhandlers.UnreadCount](queryBus, queries.HandlerFunc[notificationhandlers.UnreadCountQuery, notificationhandlers.UnreadCount](notices.UnreadCount))

	queryMWs := []middleware.QueryMiddleware{}
	if d.Validator != nil {
		queryMWs = append(queryMWs, middleware.QueryValidation(d.Validator))
	}
	queryMWs = append(queryMWs, middleware.QueryAuthorization(authorizer))

	projector := &notificationhandlers.Projector{UoWFactory: d.UoWFactory, Logger: d.Logger.With("handler", "notifications.projector")}
	if d.Dispatcher != nil {
		projector.Subscribe(d.Dispatcher)
	}

	return &Application{
		Commands:  wrapped,
		Queries:   middleware.ChainQueries(queryBus, queryMWs...),
		Projector: projector,
	}
}

type lateBus struct {
	bus commands.Bus
}

func (l *lateBus) bind(bus commands.Bus) { l.bus = bus }

func (l *lateBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	if l.bus == nil {
		return nil, commands.ErrNilBus
	}
	return l.bus.Dispatch(ctx, cmd)
}
