package uow

import (
	"context"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var ErrUnitOfWorkMissing = errs.E(errs.KindInternal, "uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
