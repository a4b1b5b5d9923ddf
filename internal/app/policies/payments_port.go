package policies

import (
	"context"

	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

// PaymentsPort settles the fee-inclusive price of a new order.
type PaymentsPort interface {
	Charge(ctx context.Context, orderID domainorders.OrderID, renter string, amount int64) (domainorders.PaymentStatus, error)
}
