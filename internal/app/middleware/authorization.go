package middleware

import (
	"context"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var (
	ErrAuthenticationRequired = errs.Forbidden("Authentication required")
	ErrAdminRequired          = errs.Forbidden("Admin access required")
)

// Authenticated messages carry the id of the caller.
type Authenticated interface {
	ActorID() string
}

// AdminOnly messages may only be sent by administrators.
type AdminOnly interface {
	Authenticated
	ActorIsAdmin() bool
	AdminOnly()
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

type AuthorizerFunc func(ctx context.Context, message any) error

func (f AuthorizerFunc) Authorize(ctx context.Context, message any) error {
	return f(ctx, message)
}

// RequireActor rejects authenticated messages without a caller and admin-only
// messages from non-admins. Messages implementing neither pass through.
func RequireActor() Authorizer {
	return AuthorizerFunc(func(_ context.Context, message any) error {
		if admin, ok := message.(AdminOnly); ok {
			if admin.ActorID() == "" {
				return ErrAuthenticationRequired
			}
			if !admin.ActorIsAdmin() {
				return ErrAdminRequired
			}
			return nil
		}
		if auth, ok := message.(Authenticated); ok && auth.ActorID() == "" {
			return ErrAuthenticationRequired
		}
		return nil
	})
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
