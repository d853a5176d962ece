// Package trace provides decision-trace recording for bandit policy
// analysis. This package has no dependencies on rb/ — it stores pure data
// types.
package trace

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures every per-period action decision.
	LevelDecisions Level = "decisions"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	"":             true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace
// level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior.
type Config struct {
	Level Level
}

// RunTrace collects decision records during a simulation run.
type RunTrace struct {
	Config  Config
	Actions []ActionRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(config Config) *RunTrace {
	return &RunTrace{
		Config:  config,
		Actions: make([]ActionRecord, 0),
	}
}

// RecordAction appends an action decision record. No-op unless the trace
// level captures decisions.
func (rt *RunTrace) RecordAction(record ActionRecord) {
	if rt == nil || rt.Config.Level != LevelDecisions {
		return
	}
	rt.Actions = append(rt.Actions, record)
}
