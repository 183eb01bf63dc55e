package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FreebetStatus tracks a sponsor-funded stake grant through its lifecycle.
type FreebetStatus string

const (
	FreebetStatusCreated   FreebetStatus = "Created"
	FreebetStatusReissued  FreebetStatus = "Reissued"
	FreebetStatusRedeemed  FreebetStatus = "Redeemed"
	FreebetStatusWithdrawn FreebetStatus = "Withdrawn"
)

// FreebetContract is a deployed freebet distributor bound to one liquidity
// pool.
type FreebetContract struct {
	ID              string
	Address         string
	LiquidityPoolID string
	Name            string
	Affiliate       string
	Manager         string
}

// Freebet is one grant. Once redeemed it references the core and bet it
// funded; the linked bet's bettor/actor are overridden to the grant owner.
type Freebet struct {
	ID              string
	FreebetID       *big.Int
	ContractID      string
	ContractAddress string
	ContractName    string
	ContractAffiliate string

	Owner string

	RawAmount     *big.Int
	Amount        decimal.Decimal
	TokenDecimals int

	RawMinOdds *big.Int
	MinOdds    decimal.Decimal

	DurationTime int64
	ExpiresAt    int64

	Status FreebetStatus

	// CoreAddress and BetID are empty until the freebet is redeemed.
	CoreAddress string
	BetID       *big.Int

	Burned     bool
	IsResolved bool

	CreatedTxHash         string
	CreatedBlockNumber    int64
	CreatedBlockTimestamp int64

	UpdatedAt int64
}
