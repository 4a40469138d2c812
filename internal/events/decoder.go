package events

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrMalformedEvent is returned for a log whose topic matches a known event but whose payload does not decode.
var ErrMalformedEvent = errors.New("malformed event")

// Decoder maps raw staking contract logs to Events.
type Decoder struct {
	contract abi.ABI
	byTopic  map[common.Hash]abi.Event
}

// NewDecoder parses the staking ABI.
func NewDecoder() (*Decoder, error) {
	parsed, err := abi.JSON(strings.NewReader(StakingABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse staking ABI: %w", err)
	}

	byTopic := make(map[common.Hash]abi.Event, len(parsed.Events))
	for _, ev := range parsed.Events {
		byTopic[ev.ID] = ev
	}

	return &Decoder{contract: parsed, byTopic: byTopic}, nil
}

// Topic returns the signature hash of the named event.
func (d *Decoder) Topic(name string) (common.Hash, bool) {
	ev, ok := d.contract.Events[name]
	if !ok {
		return common.Hash{}, false
	}
	return ev.ID, true
}

// Decode returns nil, nil for logs that are not staking events. A log carrying a
// known signature that fails to decode yields an error wrapping ErrMalformedEvent.
func (d *Decoder) Decode(log types.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	ev, ok := d.byTopic[log.Topics[0]]
	if !ok {
		return nil, nil
	}

	args := make(map[string]any, len(ev.Inputs))

	var indexed abi.Arguments
	for _, input := range ev.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: %s at block %d index %d: expected %d indexed topics, got %d",
			ErrMalformedEvent, ev.Name, log.BlockNumber, log.Index, len(indexed), len(log.Topics)-1)
	}

	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %s at block %d index %d: topics: %w",
			ErrMalformedEvent, ev.Name, log.BlockNumber, log.Index, err)
	}

	if err := d.contract.UnpackIntoMap(args, ev.Name, log.Data); err != nil {
		return nil, fmt.Errorf("%w: %s at block %d index %d: data: %w",
			ErrMalformedEvent, ev.Name, log.BlockNumber, log.Index, err)
	}

	for _, input := range ev.Inputs {
		if err := checkArg(args, input); err != nil {
			return nil, fmt.Errorf("%w: %s at block %d index %d: %w",
				ErrMalformedEvent, ev.Name, log.BlockNumber, log.Index, err)
		}
	}

	return &Event{
		Name:        ev.Name,
		Args:        args,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		TxHash:      log.TxHash,
	}, nil
}

// DecodeAll decodes logs, dropping the ones that are not staking events.
// Malformed logs are returned separately so a caller can record them and keep going.
func (d *Decoder) DecodeAll(logs []types.Log) ([]*Event, []error) {
	decoded := make([]*Event, 0, len(logs))
	var failures []error

	for _, log := range logs {
		ev, err := d.Decode(log)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if ev != nil {
			decoded = append(decoded, ev)
		}
	}

	return decoded, failures
}

func checkArg(args map[string]any, input abi.Argument) error {
	v, ok := args[input.Name]
	if !ok {
		return fmt.Errorf("missing argument %s", input.Name)
	}

	switch input.Type.T {
	case abi.AddressTy:
		if _, ok := v.(common.Address); !ok {
			return fmt.Errorf("argument %s: expected address, got %T", input.Name, v)
		}
	case abi.UintTy:
		if n, ok := v.(*big.Int); !ok || n == nil {
			return fmt.Errorf("argument %s: expected uint256, got %T", input.Name, v)
		}
	}

	return nil
}
