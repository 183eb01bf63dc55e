package odds

import "math/big"

// addMargin folds the bookmaker margin into a marginless price. The margin
// is split between the outcome and its complement in proportion to the
// implied probabilities, which reduces to a quadratic in the adjusted odds;
// the positive root is taken with an integer square root.
func addMargin(odds, margin, base *big.Int) *big.Int {
	one := base
	sq := new(big.Int).Mul(base, base)

	// revertedOdds = base^2 / (base - base^2/odds)
	inv := new(big.Int).Quo(sq, odds)
	revDen := new(big.Int).Sub(one, inv)
	revertedOdds := new(big.Int).Quo(sq, revDen)

	marginEUR := new(big.Int).Add(one, margin)
	oddsLessOne := new(big.Int).Sub(odds, one)
	revLessOne := new(big.Int).Sub(revertedOdds, one)

	// a = marginEUR * (revertedOdds - base) / (odds - base)
	a := new(big.Int).Mul(marginEUR, revLessOne)
	a.Quo(a, oddsLessOne)

	// b = ((revertedOdds - base) * base / (odds - base) * margin + base*margin) / base
	b := new(big.Int).Mul(revLessOne, one)
	b.Quo(b, oddsLessOne)
	b.Mul(b, margin)
	b.Add(b, new(big.Int).Mul(one, margin))
	b.Quo(b, one)

	// c = 2*base - marginEUR
	c := new(big.Int).Lsh(one, 1)
	c.Sub(c, marginEUR)

	// (sqrt(b^2 + 4ac) - b) * base / 2a + base
	disc := new(big.Int).Mul(b, b)
	fourAC := new(big.Int).Mul(a, c)
	fourAC.Lsh(fourAC, 2)
	disc.Add(disc, fourAC)
	root := new(big.Int).Sqrt(disc)

	num := new(big.Int).Sub(root, b)
	num.Mul(num, one)
	den := new(big.Int).Lsh(a, 1)
	num.Quo(num, den)
	return num.Add(num, one)
}
