package odds

import "math/big"

// The helpers below mirror the on-chain fixed-point primitives. Division is
// truncating (big.Int Quo), matching EVM integer semantics.

// mul returns a*b/base.
func mul(a, b, base *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, base)
}

// div returns a*base/b.
func div(a, b, base *big.Int) *big.Int {
	r := new(big.Int).Mul(a, base)
	return r.Quo(r, b)
}

// ratio returns the fixed-point quotient of the larger argument by the
// smaller, so the result is always >= base.
func ratio(a, b, base *big.Int) *big.Int {
	if a.Cmp(b) > 0 {
		return div(a, b, base)
	}
	return div(b, a, base)
}

// sigmoid returns x*base/(x+base), a damping factor in (0, base).
func sigmoid(x, base *big.Int) *big.Int {
	d := new(big.Int).Add(x, base)
	return div(x, d, base)
}

// ceilTo rounds a up to the next multiple of m, with a floor of d.
func ceilTo(a, m, d *big.Int) *big.Int {
	if a.Cmp(d) < 0 {
		return new(big.Int).Set(d)
	}
	r := new(big.Int).Add(a, m)
	r.Sub(r, big.NewInt(1))
	r.Quo(r, m)
	return r.Mul(r, m)
}

func sum(xs []*big.Int) *big.Int {
	t := new(big.Int)
	for _, x := range xs {
		t.Add(t, x)
	}
	return t
}
