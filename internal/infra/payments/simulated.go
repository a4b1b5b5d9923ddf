package payments

import (
	"context"
	"log/slog"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/policies"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

// Simulated settles every charge immediately. No money moves.
type Simulated struct {
	Logger *slog.Logger
}

func (s Simulated) Charge(ctx context.Context, orderID domainorders.OrderID, renter string, amount int64) (domainorders.PaymentStatus, error) {
	if amount <= 0 {
		return "", errs.Validation("payment amount must be positive")
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "payment simulated", "order_id", orderID, "renter", renter, "amount", amount)
	}
	return domainorders.PaymentCompleted, nil
}

var _ policies.PaymentsPort = Simulated{}
