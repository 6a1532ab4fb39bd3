// Package ingestion delivers decoded vault events to the mapping handlers.
package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"neuron-vault-indexer/internal/domain"
)

// ErrInvalidEvent is returned for envelopes that cannot be decoded into an event.
var ErrInvalidEvent = errors.New("invalid event envelope")

// Envelope is the wire format of a decoded contract log.
// Big integers travel as decimal strings, addresses and hashes as hex.
// The log position is required since the dispatcher orders and deduplicates
// events by it.
type Envelope struct {
	Kind           string          `json:"kind"`
	Address        string          `json:"address"`
	BlockNumber    *uint64         `json:"block_number"`
	BlockTimestamp uint64          `json:"block_timestamp"`
	TxHash         string          `json:"tx_hash"`
	LogIndex       *uint           `json:"log_index"`
	Params         json.RawMessage `json:"params,omitempty"`
}

type closeShortParams struct {
	Round   uint64 `json:"round"`
	Premium string `json:"premium"`
}

type nextRoundParamsSelectedParams struct {
	Round                uint64 `json:"round"`
	StrikePrice          string `json:"strike_price"`
	Delta                string `json:"delta"`
	PremiumForEachOption string `json:"premium_for_each_option"`
}

type openShortParams struct {
	Round                      uint64   `json:"round"`
	CollateralVaults           []string `json:"collateral_vaults"`
	LockedCollateralAmounts    []string `json:"locked_collateral_amounts"`
	TotalLockedCollateralValue string   `json:"total_locked_collateral_value"`
	OptionAddress              string   `json:"option_address"`
	OptionMintedAmount         string   `json:"option_minted_amount"`
}

type premiumForRoundParams struct {
	Round   uint64 `json:"round"`
	Premium string `json:"premium"`
}

type premiumDistributeParams struct {
	Round           uint64 `json:"round"`
	CollateralVault string `json:"collateral_vault"`
	Amount          string `json:"amount"`
}

// ParseEnvelope decodes a JSON envelope into a typed event.
func ParseEnvelope(data []byte) (domain.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return env.Event()
}

// Event converts the envelope into a typed event.
func (e *Envelope) Event() (domain.Event, error) {
	meta, err := e.meta()
	if err != nil {
		return nil, err
	}

	p := parser{}
	var ev domain.Event

	switch domain.EventKind(e.Kind) {
	case domain.KindDeposit:
		ev = &domain.Deposit{EventMeta: meta}
	case domain.KindInstantWithdraw:
		ev = &domain.InstantWithdraw{EventMeta: meta}
	case domain.KindWithdraw:
		ev = &domain.Withdraw{EventMeta: meta}

	case domain.KindCloseShort:
		var params closeShortParams
		if err := e.decodeParams(&params); err != nil {
			return nil, err
		}
		ev = &domain.CloseShort{
			EventMeta: meta,
			Round:     params.Round,
			Premium:   p.bigInt("premium", params.Premium),
		}

	case domain.KindNextRoundParamsSelected:
		var params nextRoundParamsSelectedParams
		if err := e.decodeParams(&params); err != nil {
			return nil, err
		}
		ev = &domain.NextRoundParamsSelected{
			EventMeta:            meta,
			Round:                params.Round,
			StrikePrice:          p.bigInt("strike_price", params.StrikePrice),
			Delta:                p.bigInt("delta", params.Delta),
			PremiumForEachOption: p.bigInt("premium_for_each_option", params.PremiumForEachOption),
		}

	case domain.KindOpenShort:
		var params openShortParams
		if err := e.decodeParams(&params); err != nil {
			return nil, err
		}
		vaults := make([]common.Address, len(params.CollateralVaults))
		for i, v := range params.CollateralVaults {
			vaults[i] = p.address("collateral_vaults", v)
		}
		amounts := make([]*big.Int, len(params.LockedCollateralAmounts))
		for i, v := range params.LockedCollateralAmounts {
			amounts[i] = p.bigInt("locked_collateral_amounts", v)
		}
		ev = &domain.OpenShort{
			EventMeta:                  meta,
			Round:                      params.Round,
			CollateralVaults:           vaults,
			LockedCollateralAmounts:    amounts,
			TotalLockedCollateralValue: p.bigInt("total_locked_collateral_value", params.TotalLockedCollateralValue),
			OptionAddress:              p.address("option_address", params.OptionAddress),
			OptionMintedAmount:         p.bigInt("option_minted_amount", params.OptionMintedAmount),
		}

	case domain.KindPremiumForRound:
		var params premiumForRoundParams
		if err := e.decodeParams(&params); err != nil {
			return nil, err
		}
		ev = &domain.PremiumForRound{
			EventMeta: meta,
			Round:     params.Round,
			Premium:   p.bigInt("premium", params.Premium),
		}

	case domain.KindPremiumDistribute:
		var params premiumDistributeParams
		if err := e.decodeParams(&params); err != nil {
			return nil, err
		}
		ev = &domain.PremiumDistribute{
			EventMeta:       meta,
			Round:           params.Round,
			CollateralVault: p.address("collateral_vault", params.CollateralVault),
			Amount:          p.bigInt("amount", params.Amount),
		}

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}

	if p.err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, e.Kind, p.err)
	}
	return ev, nil
}

func (e *Envelope) meta() (domain.EventMeta, error) {
	if !common.IsHexAddress(e.Address) {
		return domain.EventMeta{}, fmt.Errorf("%w: address %q", ErrInvalidEvent, e.Address)
	}
	if e.BlockNumber == nil {
		return domain.EventMeta{}, fmt.Errorf("%w: missing block_number", ErrInvalidEvent)
	}
	if e.LogIndex == nil {
		return domain.EventMeta{}, fmt.Errorf("%w: missing log_index", ErrInvalidEvent)
	}
	meta := domain.EventMeta{
		Address:        common.HexToAddress(e.Address),
		BlockNumber:    *e.BlockNumber,
		BlockTimestamp: e.BlockTimestamp,
		LogIndex:       *e.LogIndex,
	}
	if e.TxHash != "" {
		meta.TxHash = common.HexToHash(e.TxHash)
	}
	return meta, nil
}

func (e *Envelope) decodeParams(dst interface{}) error {
	if len(e.Params) == 0 {
		return fmt.Errorf("%w: %s: missing params", ErrInvalidEvent, e.Kind)
	}
	if err := json.Unmarshal(e.Params, dst); err != nil {
		return fmt.Errorf("%w: %s params: %v", ErrInvalidEvent, e.Kind, err)
	}
	return nil
}

// parser keeps the first field error so conversions can be chained.
type parser struct {
	err error
}

func (p *parser) bigInt(field, s string) *big.Int {
	if p.err != nil {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		p.err = fmt.Errorf("field %s: %q is not an unsigned integer", field, s)
		return nil
	}
	return v
}

func (p *parser) address(field, s string) common.Address {
	if p.err != nil {
		return common.Address{}
	}
	if !common.IsHexAddress(s) {
		p.err = fmt.Errorf("field %s: %q is not an address", field, s)
		return common.Address{}
	}
	return common.HexToAddress(s)
}

// MarshalEvent encodes an event as a JSON envelope.
func MarshalEvent(ev domain.Event) ([]byte, error) {
	meta := ev.Meta()
	env := Envelope{
		Kind:           ev.Kind().String(),
		Address:        meta.Address.Hex(),
		BlockNumber:    &meta.BlockNumber,
		BlockTimestamp: meta.BlockTimestamp,
		TxHash:         meta.TxHash.Hex(),
		LogIndex:       &meta.LogIndex,
	}

	var params interface{}
	switch e := ev.(type) {
	case *domain.Deposit, *domain.InstantWithdraw, *domain.Withdraw:
	case *domain.CloseShort:
		params = closeShortParams{Round: e.Round, Premium: intString(e.Premium)}
	case *domain.NextRoundParamsSelected:
		params = nextRoundParamsSelectedParams{
			Round:                e.Round,
			StrikePrice:          intString(e.StrikePrice),
			Delta:                intString(e.Delta),
			PremiumForEachOption: intString(e.PremiumForEachOption),
		}
	case *domain.OpenShort:
		vaults := make([]string, len(e.CollateralVaults))
		for i, v := range e.CollateralVaults {
			vaults[i] = v.Hex()
		}
		amounts := make([]string, len(e.LockedCollateralAmounts))
		for i, v := range e.LockedCollateralAmounts {
			amounts[i] = intString(v)
		}
		params = openShortParams{
			Round:                      e.Round,
			CollateralVaults:           vaults,
			LockedCollateralAmounts:    amounts,
			TotalLockedCollateralValue: intString(e.TotalLockedCollateralValue),
			OptionAddress:              e.OptionAddress.Hex(),
			OptionMintedAmount:         intString(e.OptionMintedAmount),
		}
	case *domain.PremiumForRound:
		params = premiumForRoundParams{Round: e.Round, Premium: intString(e.Premium)}
	case *domain.PremiumDistribute:
		params = premiumDistributeParams{
			Round:           e.Round,
			CollateralVault: e.CollateralVault.Hex(),
			Amount:          intString(e.Amount),
		}
	default:
		return nil, fmt.Errorf("%w: unsupported event type %T", ErrInvalidEvent, ev)
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		env.Params = raw
	}
	return json.Marshal(env)
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
