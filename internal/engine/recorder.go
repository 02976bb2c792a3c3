package engine

import (
	"github.com/talgya/slot-exchange/internal/stats"
)

// MemoryRecorder keeps every record in memory.
type MemoryRecorder struct {
	Rounds []stats.RoundSummary
	Days   []stats.DaySummary
}

// RecordRound appends r.
func (m *MemoryRecorder) RecordRound(r stats.RoundSummary) error {
	m.Rounds = append(m.Rounds, r)
	return nil
}

// RecordDay appends d.
func (m *MemoryRecorder) RecordDay(d stats.DaySummary) error {
	m.Days = append(m.Days, d)
	return nil
}
