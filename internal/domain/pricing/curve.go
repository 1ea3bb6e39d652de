// Package pricing implements the bonding-curve pricer: a pure function
// from circulating supply to unit price. Buys grow supply and raise the
// price; sells shrink supply and lower it. No side effects, no I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
)

// CurveParams configures the linear bonding curve
//
//	price = BasePrice + Slope * circulatingSupply
type CurveParams struct {
	BasePrice decimal.Decimal
	Slope     decimal.Decimal
}

// Validate checks that the parameters produce a positive, monotonically
// increasing curve
func (p CurveParams) Validate() error {
	if !p.BasePrice.IsPositive() || p.Slope.IsNegative() {
		return errs.ErrInternalServer
	}
	return nil
}

// Price returns the unit price for the given circulating supply
func Price(circulatingSupply decimal.Decimal, params CurveParams) decimal.Decimal {
	return params.BasePrice.Add(params.Slope.Mul(circulatingSupply))
}
