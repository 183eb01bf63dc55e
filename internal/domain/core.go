package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ProtocolVersion selects the odds model and fixed-point base a core
// contract speaks.
type ProtocolVersion string

const (
	VersionV1 ProtocolVersion = "V1"
	VersionV2 ProtocolVersion = "V2"
	VersionV3 ProtocolVersion = "V3"
)

// OddsDecimals returns the number of implied decimals of the version's
// fixed-point odds base (V1: 1e9, V2/V3: 1e12).
func (v ProtocolVersion) OddsDecimals() int {
	if v == VersionV1 {
		return 9
	}
	return 12
}

// Multiplier returns the fixed-point base itself, used to descale
// amount*odds products.
func (v ProtocolVersion) Multiplier() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(v.OddsDecimals())), nil)
}

// CoreContract maps a betting-core contract address to its protocol version
// and owning liquidity pool.
type CoreContract struct {
	ID              string
	Address         string
	Version         ProtocolVersion
	Type            string
	LiquidityPoolID string

	// PrematchAddress is set on express cores only; their sub-bet condition
	// ids resolve against the paired single-bet core.
	PrematchAddress string
}

// ToDecimal converts a raw fixed-point integer into its human-readable
// decimal mirror with the given number of implied decimals.
func ToDecimal(x *big.Int, decimals int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -int32(decimals))
}
