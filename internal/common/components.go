package common

const (
	ComponentIndexer     = "indexer"
	ComponentSyncer      = "syncer"
	ComponentLedger      = "ledger"
	ComponentCheckpoint  = "checkpoint"
	ComponentApplier     = "applier"
	ComponentMaintenance = "maintenance"
	ComponentMetrics     = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentIndexer:     {},
	ComponentSyncer:      {},
	ComponentLedger:      {},
	ComponentCheckpoint:  {},
	ComponentApplier:     {},
	ComponentMaintenance: {},
	ComponentMetrics:     {},
}
