package types

import (
	"fmt"
	"strings"
)

// BlockFinality selects which chain head the indexer is allowed to sync up to.
type BlockFinality string

const (
	// FinalityFinalized syncs up to the finalized block tag
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe syncs up to the safe block tag
	FinalitySafe BlockFinality = "safe"

	// FinalityLatest syncs up to the latest block, optionally minus a configured lag
	FinalityLatest BlockFinality = "latest"
)

func (f BlockFinality) String() string {
	return string(f)
}

// IsValid checks if the BlockFinality value is valid.
func (f BlockFinality) IsValid() bool {
	switch f {
	case FinalityFinalized, FinalitySafe, FinalityLatest:
		return true
	default:
		return false
	}
}

// ParseBlockFinality parses a case-insensitive finality name.
func ParseBlockFinality(s string) (BlockFinality, error) {
	f := BlockFinality(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality: %s (must be one of: finalized, safe, latest)", s)
	}
	return f, nil
}
