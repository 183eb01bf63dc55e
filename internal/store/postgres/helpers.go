package postgres

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Raw fixed-point integers are stored as NUMERIC and carried over the wire as
// decimal strings, so values keep full 256-bit precision. NULL maps to a nil
// *big.Int.

func bigArg(x *big.Int) any {
	if x == nil {
		return nil
	}
	return x.String()
}

func parseBig(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("postgres: parse numeric %q", *s)
	}
	return v, nil
}

func bigsArg(xs []*big.Int) []string {
	if xs == nil {
		return nil
	}
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

func parseBigs(ss []string) ([]*big.Int, error) {
	if ss == nil {
		return nil, nil
	}
	out := make([]*big.Int, len(ss))
	for i := range ss {
		v, err := parseBig(&ss[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// strArr normalizes a nil id list to an empty TEXT[] value.
func strArr(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func decArg(d decimal.Decimal) string {
	return d.String()
}

func parseDec(s *string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: parse decimal %q: %w", *s, err)
	}
	return d, nil
}
