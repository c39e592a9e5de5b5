package sale

import "launchpad/core/amount"

// allocationFor converts a cumulative payment into the token allocation it
// buys at the sale price: floor(payment * 10^tokenDecimals / tokenPrice).
// Purchases derive their event delta from two calls to this function, so a
// mid-sale repricing would have to change both the formula and that delta.
func allocationFor(cfg Config, payment amount.Amount) (amount.Amount, error) {
	if payment.IsZero() {
		return amount.Zero(cfg.TokenDecimals), nil
	}
	return payment.MulDiv(amount.Pow10(cfg.TokenDecimals), cfg.TokenPrice.Uint256(), cfg.TokenDecimals)
}
