package dto

import "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"

type FeeRates struct {
	PlatformFeeRate  int `json:"platformFeeRate"`
	InsuranceFeeRate int `json:"insuranceFeeRate"`
	TotalFeeRate     int `json:"totalFeeRate"`
}

type FeeBreakdown struct {
	Subtotal     int64     `json:"subtotal"`
	PlatformFee  int64     `json:"platformFee"`
	InsuranceFee int64     `json:"insuranceFee"`
	TotalPrice   int64     `json:"totalPrice"`
	Rates        *FeeRates `json:"breakdown,omitempty"`
}

func MapFees(b fees.Breakdown) FeeBreakdown {
	return FeeBreakdown{
		Subtotal:     b.Subtotal,
		PlatformFee:  b.PlatformFee,
		InsuranceFee: b.InsuranceFee,
		TotalPrice:   b.TotalPrice,
	}
}

func MapFeesWithRates(b fees.Breakdown) FeeBreakdown {
	out := MapFees(b)
	out.Rates = &FeeRates{
		PlatformFeeRate:  fees.PlatformFeePercent,
		InsuranceFeeRate: fees.InsuranceFeePercent,
		TotalFeeRate:     fees.TotalFeePercent,
	}
	return out
}
