package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind identifies a decoded vault contract event.
type EventKind string

const (
	KindDeposit                 EventKind = "Deposit"
	KindInstantWithdraw         EventKind = "InstantWithdraw"
	KindWithdraw                EventKind = "Withdraw"
	KindCloseShort              EventKind = "CloseShort"
	KindNextRoundParamsSelected EventKind = "NextRoundParamsSelected"
	KindOpenShort               EventKind = "OpenShort"
	KindPremiumForRound         EventKind = "PremiumForRound"
	KindPremiumDistribute       EventKind = "PremiumDistribute"
)

// AllEventKinds lists every supported kind in lifecycle order.
var AllEventKinds = []EventKind{
	KindDeposit,
	KindInstantWithdraw,
	KindWithdraw,
	KindCloseShort,
	KindNextRoundParamsSelected,
	KindOpenShort,
	KindPremiumForRound,
	KindPremiumDistribute,
}

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a supported value.
func (k EventKind) IsValid() bool {
	for _, known := range AllEventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EventMeta locates an event on chain.
type EventMeta struct {
	Address        common.Address // emitting contract
	BlockNumber    uint64
	BlockTimestamp uint64 // seconds
	TxHash         common.Hash
	LogIndex       uint
}

// Before reports whether m was emitted strictly before other.
func (m EventMeta) Before(other EventMeta) bool {
	if m.BlockNumber != other.BlockNumber {
		return m.BlockNumber < other.BlockNumber
	}
	return m.LogIndex < other.LogIndex
}

// Event is a decoded vault contract event.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
}

// Deposit is emitted by a collateral vault on deposit.
type Deposit struct {
	EventMeta
}

func (e *Deposit) Kind() EventKind { return KindDeposit }
func (e *Deposit) Meta() EventMeta { return e.EventMeta }

// InstantWithdraw is emitted by a collateral vault on instant withdrawal.
type InstantWithdraw struct {
	EventMeta
}

func (e *InstantWithdraw) Kind() EventKind { return KindInstantWithdraw }
func (e *InstantWithdraw) Meta() EventMeta { return e.EventMeta }

// Withdraw is emitted by a collateral vault on a completed withdrawal.
type Withdraw struct {
	EventMeta
}

func (e *Withdraw) Kind() EventKind { return KindWithdraw }
func (e *Withdraw) Meta() EventMeta { return e.EventMeta }

// CloseShort is emitted by a collateral vault when its round position is closed.
type CloseShort struct {
	EventMeta
	Round   uint64
	Premium *big.Int
}

func (e *CloseShort) Kind() EventKind { return KindCloseShort }
func (e *CloseShort) Meta() EventMeta { return e.EventMeta }

// NextRoundParamsSelected is emitted by a theta vault when the next round is configured.
type NextRoundParamsSelected struct {
	EventMeta
	Round                uint64
	StrikePrice          *big.Int
	Delta                *big.Int
	PremiumForEachOption *big.Int
}

func (e *NextRoundParamsSelected) Kind() EventKind { return KindNextRoundParamsSelected }
func (e *NextRoundParamsSelected) Meta() EventMeta { return e.EventMeta }

// OpenShort is emitted by a theta vault when options are minted against collateral.
// CollateralVaults and LockedCollateralAmounts share index order.
type OpenShort struct {
	EventMeta
	Round                      uint64
	CollateralVaults           []common.Address
	LockedCollateralAmounts    []*big.Int
	TotalLockedCollateralValue *big.Int
	OptionAddress              common.Address
	OptionMintedAmount         *big.Int
}

func (e *OpenShort) Kind() EventKind { return KindOpenShort }
func (e *OpenShort) Meta() EventMeta { return e.EventMeta }

// PremiumForRound is emitted by a theta vault once the round premium is known.
type PremiumForRound struct {
	EventMeta
	Round   uint64
	Premium *big.Int
}

func (e *PremiumForRound) Kind() EventKind { return KindPremiumForRound }
func (e *PremiumForRound) Meta() EventMeta { return e.EventMeta }

// PremiumDistribute is emitted by a theta vault for every collateral vault paid at round end.
type PremiumDistribute struct {
	EventMeta
	Round           uint64
	CollateralVault common.Address
	Amount          *big.Int
}

func (e *PremiumDistribute) Kind() EventKind { return KindPremiumDistribute }
func (e *PremiumDistribute) Meta() EventMeta { return e.EventMeta }
