package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var (
	ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")
	errTransactionConflict     = errs.Conflict("Concurrent update detected, please retry")
)

// Factory wires Mongo sessions into the generic UnitOfWork interface. Write
// units run inside a multi-document transaction; read-only units use a plain
// session without a transaction.
type Factory struct {
	DB *mongo.Database
}

func NewFactory(db *mongo.Database) Factory {
	return Factory{DB: db}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	u := &Unit{
		session:       session,
		readOnly:      opts.ReadOnly,
		listings:      NewListingRepository(f.DB),
		orders:        NewOrderRepository(f.DB),
		carts:         NewCartRepository(f.DB),
		notifications: NewNotificationRepository(f.DB),
	}
	if opts.ReadOnly {
		return u, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return u, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	listings      *ListingRepository
	orders        *OrderRepository
	carts         *CartRepository
	notifications *NotificationRepository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Orders() domainorders.Repository { return u.orders }

func (u *Unit) Carts() domaincart.Repository { return u.carts }

func (u *Unit) Notifications() domainnotifications.Repository { return u.notifications }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return commitError(u.session.CommitTransaction(ctx))
}

// commitError maps transaction conflicts to a retryable Conflict.
func commitError(err error) error {
	if err != nil && isConflict(err) {
		return errs.Wrap(errs.KindConflict, errTransactionConflict.Message, err)
	}
	return err
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
