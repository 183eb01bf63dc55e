package odds

import "math/big"

// computeV1 prices a two-outcome market with the original 1e9-base model.
// Each side is priced from its pool share before and after a notional stake;
// a zero or sub-unit stake collapses to the plain inverse-probability price.
func computeV1(fund1, fund2, amount, margin *big.Int) ([]*big.Int, error) {
	if fund1.Sign() <= 0 || fund2.Sign() <= 0 {
		return nil, ErrZeroFund
	}
	return []*big.Int{
		oddsFromBanks(fund1, fund2, amount, 0, margin),
		oddsFromBanks(fund1, fund2, amount, 1, margin),
	}, nil
}

func oddsFromBanks(fund1, fund2, amount *big.Int, outcomeIndex int, margin *big.Int) *big.Int {
	base := base1e9
	own := fund1
	if outcomeIndex == 1 {
		own = fund2
	}
	total := new(big.Int).Add(fund1, fund2)

	// ps is the outcome's current pool share, pe its share after the stake.
	ps := div(own, total, base)
	pe := div(new(big.Int).Add(own, amount), new(big.Int).Add(total, amount), base)

	// cAmount is the stake expressed in hundredths of the outcome's fund,
	// rounded up and floored at one unit.
	cAmount := big.NewInt(1)
	if amount.Sign() > 0 {
		hundredth := new(big.Int).Quo(own, big.NewInt(100))
		if hundredth.Sign() > 0 {
			c := new(big.Int).Mul(amount, base)
			c.Quo(c, hundredth)
			c = ceilTo(c, base, base)
			cAmount = c.Quo(c, base)
		}
	}

	if cAmount.Cmp(big.NewInt(1)) == 0 {
		raw := new(big.Int).Mul(base, base)
		raw.Quo(raw, ps)
		return addMargin(raw, margin, base)
	}

	// odds = base^3 / ((pe*cAmount + 2ps - 2pe) * base / cAmount)
	inner := new(big.Int).Mul(pe, cAmount)
	inner.Add(inner, new(big.Int).Lsh(ps, 1))
	inner.Sub(inner, new(big.Int).Lsh(pe, 1))
	inner.Mul(inner, base)
	inner.Quo(inner, cAmount)

	raw := new(big.Int).Mul(base, base)
	raw.Mul(raw, base)
	raw.Quo(raw, inner)
	return addMargin(raw, margin, base)
}
