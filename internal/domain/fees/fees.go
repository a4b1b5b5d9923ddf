// Package fees holds the marketplace fee rules. All amounts are whole currency units.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

const (
	PlatformFeePercent  = 10
	InsuranceFeePercent = 10
	TotalFeePercent     = PlatformFeePercent + InsuranceFeePercent

	// MinTotalPrice keeps derived orders from being free.
	MinTotalPrice int64 = 1
)

var ErrInvalidSubtotal = errs.Validation("fees: valid subtotal is required")

var (
	platformRate  = decimal.New(PlatformFeePercent, -2)
	insuranceRate = decimal.New(InsuranceFeePercent, -2)
	grossFactor   = decimal.New(100+TotalFeePercent, -2)
)

type Breakdown struct {
	Subtotal     int64
	PlatformFee  int64
	InsuranceFee int64
	TotalPrice   int64
}

// Compute derives both fees from subtotal. Negative input is treated as zero.
func Compute(subtotal int64) Breakdown {
	if subtotal < 0 {
		subtotal = 0
	}
	base := decimal.NewFromInt(subtotal)
	platform := roundUnits(base.Mul(platformRate))
	insurance := roundUnits(base.Mul(insuranceRate))
	return Breakdown{
		Subtotal:     subtotal,
		PlatformFee:  platform,
		InsuranceFee: insurance,
		TotalPrice:   subtotal + platform + insurance,
	}
}

// Quote is the direct API form: subtotal must be positive.
func Quote(subtotal int64) (Breakdown, error) {
	if subtotal <= 0 {
		return Breakdown{}, ErrInvalidSubtotal
	}
	return Compute(subtotal), nil
}

// ForOrder is used when the engine derives prices itself; the total is clamped to MinTotalPrice.
func ForOrder(subtotal int64) Breakdown {
	b := Compute(subtotal)
	if b.TotalPrice < MinTotalPrice {
		b.TotalPrice = MinTotalPrice
	}
	return b
}

// Share returns round(weight/sum × total), the part of an externally supplied
// total attributed to one cart line.
func Share(weight, sum, total int64) int64 {
	if sum <= 0 || weight <= 0 || total <= 0 {
		return 0
	}
	part := decimal.NewFromInt(weight).Mul(decimal.NewFromInt(total)).Div(decimal.NewFromInt(sum))
	return roundUnits(part)
}

// Backfill fills fee fields that legacy records did not persist. Present values win.
func Backfill(b Breakdown) Breakdown {
	if b.Subtotal == 0 && b.TotalPrice > 0 {
		b.Subtotal = roundUnits(decimal.NewFromInt(b.TotalPrice).Div(grossFactor))
	}
	if b.Subtotal > 0 {
		derived := Compute(b.Subtotal)
		if b.PlatformFee == 0 {
			b.PlatformFee = derived.PlatformFee
		}
		if b.InsuranceFee == 0 {
			b.InsuranceFee = derived.InsuranceFee
		}
	}
	if b.TotalPrice == 0 {
		b.TotalPrice = b.Subtotal + b.PlatformFee + b.InsuranceFee
	}
	return b
}

// roundUnits rounds half away from zero, which is half-up for the non-negative amounts used here.
func roundUnits(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
