// Package odds computes fixed-point payout multipliers for a condition's
// outcomes from its pooled virtual funds and margin parameter. Three
// versioned models coexist: V1 (two outcomes, base 1e9), V2 (two outcomes,
// base 1e12) and V3 (N outcomes, base 1e12, iterative margin solver). All
// arithmetic is exact big-integer math; results must match the on-chain
// pricing bit for bit, so no floating point is used anywhere.
package odds

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/betcore/internal/domain"
)

var (
	// ErrZeroFund is returned when the summed funds are zero.
	ErrZeroFund = errors.New("odds: total fund is zero")
	// ErrProbabilityRange is returned when an implied probability falls
	// outside [0.1%, 100%).
	ErrProbabilityRange = errors.New("odds: probability out of range")
	// ErrInconsistentMargin is returned when the margin budget cannot exceed
	// the aggregate odds spread.
	ErrInconsistentMargin = errors.New("odds: margin inconsistent with spread")
	// ErrNoConvergence is returned when the solver exhausts its iteration
	// budget without reaching the precision target.
	ErrNoConvergence = errors.New("odds: solver did not converge")
	// ErrOddsTooLow is returned when a computed price implies a guaranteed
	// loss (odds at or below 1.0).
	ErrOddsTooLow = errors.New("odds: odds below minimum")
	// ErrDegenerateMarket is returned for two-outcome markets priced at
	// exactly 1.0 before margin.
	ErrDegenerateMarket = errors.New("odds: degenerate market")
	// ErrOutcomeCount is returned when the funds vector length does not fit
	// the model version.
	ErrOutcomeCount = errors.New("odds: unsupported outcome count")
)

var (
	base1e9  = big.NewInt(1_000_000_000)
	base1e12 = big.NewInt(1_000_000_000_000)

	// maxIterations bounds the V3 solver loop.
	maxIterations = 32
	// precision is the relative tolerance of the V3 convergence check,
	// scaled by the base (1e6 / 1e12 = 1e-6).
	precision = big.NewInt(1_000_000)
	// maxOddsMultiple caps any computed odds at 100x.
	maxOddsMultiple = big.NewInt(100)
)

// Compute returns the fixed-point odds for every outcome, in fund order.
// The fixed-point base is version specific: 1e9 for V1, 1e12 for V2 and V3.
// On any failure the caller must leave the condition untouched.
func Compute(version domain.ProtocolVersion, funds []*big.Int, margin *big.Int, winningOutcomesCount uint8) ([]*big.Int, error) {
	switch version {
	case domain.VersionV1:
		if len(funds) != 2 {
			return nil, fmt.Errorf("%w: V1 wants 2 outcomes, got %d", ErrOutcomeCount, len(funds))
		}
		return computeV1(funds[0], funds[1], big.NewInt(0), margin)
	case domain.VersionV2:
		if len(funds) != 2 {
			return nil, fmt.Errorf("%w: V2 wants 2 outcomes, got %d", ErrOutcomeCount, len(funds))
		}
		return computeV2(funds[0], funds[1], big.NewInt(0), margin)
	case domain.VersionV3:
		if len(funds) == 0 {
			return nil, ErrOutcomeCount
		}
		return computeV3(funds, margin, winningOutcomesCount)
	default:
		return nil, fmt.Errorf("odds: unknown version %q", version)
	}
}
