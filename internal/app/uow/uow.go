package uow

import (
	"context"

	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Orders() domainorders.Repository
	Carts() domaincart.Repository
	Notifications() domainnotifications.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (sessions)
// which repositories pick up from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Attach returns a context carrying unit and any driver state it injects.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
