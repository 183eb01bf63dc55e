package odds

import (
	"fmt"
	"math/big"
)

// computeV3 prices an N-outcome market with the 1e12-base model. Implied
// probabilities are derived from the virtual funds and the number of winning
// outcomes, then a per-outcome spread is solved iteratively so the summed
// spread equals the requested margin. The update step is damped through a
// sigmoid to keep the fixed-point iteration stable.
func computeV3(funds []*big.Int, margin *big.Int, winningOutcomesCount uint8) ([]*big.Int, error) {
	base := base1e12
	total := sum(funds)
	if total.Sign() == 0 {
		return nil, ErrZeroFund
	}

	minProb := new(big.Int).Quo(base, big.NewInt(1000))
	wc := big.NewInt(int64(winningOutcomesCount))

	probs := make([]*big.Int, len(funds))
	for i, f := range funds {
		p := new(big.Int).Mul(f, wc)
		p.Mul(p, base)
		p.Quo(p, total)
		if p.Cmp(minProb) < 0 || p.Cmp(base) >= 0 {
			return nil, fmt.Errorf("%w: outcome %d", ErrProbabilityRange, i)
		}
		probs[i] = p
	}

	if margin.Sign() <= 0 {
		out := make([]*big.Int, len(probs))
		for i, p := range probs {
			raw := new(big.Int).Mul(base, base)
			out[i] = raw.Quo(raw, p)
		}
		return finalize(out, base)
	}

	// Seed each outcome's spread proportionally to its counter-probability.
	spreads := make([]*big.Int, len(probs))
	for i, p := range probs {
		spreads[i] = mul(new(big.Int).Sub(base, p), margin, base)
	}

	spreadMultiplier := new(big.Int).Mul(wc, base)
	prevError := new(big.Int).Set(margin)

	for iter := 0; iter < maxIterations; iter++ {
		out := make([]*big.Int, len(probs))
		spreadSum := new(big.Int)
		for i, p := range probs {
			out[i] = div(new(big.Int).Sub(base, spreads[i]), p, base)
			spreadSum.Add(spreadSum, div(base, out[i], base))
		}

		oddsSpread := new(big.Int).Sub(base, div(spreadMultiplier, spreadSum, base))

		if new(big.Int).Sub(ratio(margin, oddsSpread, base), base).Cmp(precision) < 0 {
			return finalize(out, base)
		}
		if margin.Cmp(oddsSpread) <= 0 {
			return nil, ErrInconsistentMargin
		}

		newError := new(big.Int).Sub(margin, oddsSpread)
		if newError.Cmp(prevError) == 0 {
			// The iteration has stalled. Accept the result only if it is
			// already within tolerance of the margin budget.
			if new(big.Int).Sub(div(margin, oddsSpread, base), base).Cmp(precision) < 0 {
				return finalize(out, base)
			}
			return nil, ErrNoConvergence
		}
		prevError = newError

		for i := range spreads {
			arg := mul(newError, spreads[i], base)
			arg = div(arg, new(big.Int).Sub(base, div(base, out[i], base)), base)
			arg = div(arg, new(big.Int).Sub(base, margin), base)
			arg = div(arg, oddsSpread, base)

			step := new(big.Int).Sub(base, spreads[i])
			step.Sub(step, probs[i])
			spreads[i] = new(big.Int).Add(spreads[i], mul(step, sigmoid(arg, base), base))
		}
	}
	return nil, ErrNoConvergence
}

// finalize clamps every price at 100x and rejects prices at or below 1.0.
func finalize(out []*big.Int, base *big.Int) ([]*big.Int, error) {
	maxOdds := new(big.Int).Mul(maxOddsMultiple, base)
	for i, o := range out {
		if o.Cmp(maxOdds) > 0 {
			out[i] = new(big.Int).Set(maxOdds)
		}
		if out[i].Cmp(base) <= 0 {
			return nil, fmt.Errorf("%w: outcome %d", ErrOddsTooLow, i)
		}
	}
	return out, nil
}
