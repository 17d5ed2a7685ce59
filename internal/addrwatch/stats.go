package addrwatch

// StatsRecorder receives scheduler-level counters: completed poll cycles
// and recovered ledger errors. Alert and delivery counters live with the
// dispatcher, which sees every alert anyway.
type StatsRecorder interface {
	RecordCycle()
	RecordLedgerError()
}

// nopStats is the default recorder when none is configured.
type nopStats struct{}

func (nopStats) RecordCycle()       {}
func (nopStats) RecordLedgerError() {}
