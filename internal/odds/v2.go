package odds

import "math/big"

// computeV2 prices a two-outcome market with the 1e12-base model: the raw
// price is the total pool over the outcome's own fund, then the margin is
// folded in. A raw price of exactly 1.0 means the opposite fund is empty and
// the market cannot be priced.
func computeV2(fund1, fund2, amount, margin *big.Int) ([]*big.Int, error) {
	if fund1.Sign() <= 0 || fund2.Sign() <= 0 {
		return nil, ErrZeroFund
	}
	base := base1e12
	total := new(big.Int).Add(fund1, fund2)
	total.Add(total, amount)

	out := make([]*big.Int, 2)
	for i, own := range []*big.Int{fund1, fund2} {
		active := new(big.Int).Add(own, amount)
		raw := new(big.Int).Mul(total, base)
		raw.Quo(raw, active)
		if raw.Cmp(base) == 0 {
			return nil, ErrDegenerateMarket
		}
		out[i] = addMargin(raw, margin, base)
	}
	return out, nil
}
