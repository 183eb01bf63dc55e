package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PoolTransactionType labels liquidity pool ledger entries.
type PoolTransactionType string

const (
	PoolTransactionDeposit    PoolTransactionType = "Deposit"
	PoolTransactionWithdrawal PoolTransactionType = "Withdrawal"
)

// LiquidityPool is the capital pool backing a set of conditions. Settlement
// feeds betsAmount/wonBetsAmount; APR and TVL are derived on every touching
// event.
type LiquidityPool struct {
	ID            string
	Address       string
	CoreAddresses []string
	Version       string

	ChainID   int
	ChainName string

	TokenAddress  string
	TokenDecimals int
	Asset         string

	BetsAmount    *big.Int
	BetsCount     int64
	WonBetsAmount *big.Int
	WonBetsCount  int64

	DepositedAmount *big.Int
	WithdrawnAmount *big.Int

	DepositedWithStakingAmount *big.Int
	WithdrawnWithStakingAmount *big.Int

	LiquidityManager string

	RawAPR *big.Int
	APR    decimal.Decimal

	RawTVL *big.Int
	TVL    decimal.Decimal

	WithdrawTimeout int64

	DaysSinceDeployment int64

	FirstCalculatedBlockNumber    int64
	FirstCalculatedBlockTimestamp int64
	LastCalculatedBlockNumber     int64
	LastCalculatedBlockTimestamp  int64
}

// LiquidityPoolNFT is one depositor position (identified by its tree leaf).
type LiquidityPoolNFT struct {
	ID              string
	NFTID           *big.Int
	LiquidityPoolID string

	Owner            string
	HistoricalOwners []string

	RawDepositedAmount *big.Int
	DepositedAmount    decimal.Decimal
	RawWithdrawnAmount *big.Int
	WithdrawnAmount    decimal.Decimal

	IsFullyWithdrawn bool
	WithdrawTimeout  int64

	CreatedBlockNumber    int64
	CreatedBlockTimestamp int64
}

// LiquidityPoolTransaction is one deposit or withdrawal ledger row.
type LiquidityPoolTransaction struct {
	ID              string
	TxHash          string
	Account         string
	Type            PoolTransactionType
	NFTID           string
	LiquidityPoolID string

	RawAmount *big.Int
	Amount    decimal.Decimal

	BlockNumber    int64
	BlockTimestamp int64
}
