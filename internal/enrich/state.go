package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/lookup-bot/internal/lookup"
)

// State is a step of a single enrichment request.
type State string

const (
	StateClassified             State = "classified"
	StatePrimaryLookupPending   State = "primary_lookup_pending"
	StatePrimarySucceeded       State = "primary_succeeded"
	StatePrimaryFailed          State = "primary_failed"
	StateSecondaryLookupPending State = "secondary_lookup_pending"
	StateAggregated             State = "aggregated"
	StateErrored                State = "errored"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateAggregated || s == StateErrored
}

type tracker struct {
	log   *zap.Logger
	state State
}

func newTracker(log *zap.Logger) *tracker {
	return &tracker{log: log, state: StateClassified}
}

func (t *tracker) to(s State, fields ...zap.Field) {
	t.log.Debug("enrich: state transition",
		append([]zap.Field{zap.String("from", string(t.state)), zap.String("to", string(s))}, fields...)...,
	)
	t.state = s
}

// fail moves to Errored through PrimaryFailed and returns err as a
// *lookup.Error.
func (t *tracker) fail(err error) error {
	le := lookup.FromTransport("", err)
	if t.state == StatePrimaryLookupPending {
		t.to(StatePrimaryFailed)
	}
	t.to(StateErrored, zap.String("error_kind", string(le.Kind)))
	t.log.Info("enrich: lookup ended with error", zap.Error(le))
	return le
}
