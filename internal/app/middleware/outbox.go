package middleware

import (
	"context"
	"log/slog"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
)

// OutboxFlush delivers committed records after the command returns. It must sit
// outside Transaction. Delivery failures are logged and never fail the command.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if flushErr := box.Flush(context.WithoutCancel(ctx)); flushErr != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", flushErr)
			}
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
