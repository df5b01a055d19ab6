// Package recorder journals evaluation outcomes for later analysis. Nothing in
// the evaluation path reads the journal back.
package recorder

import (
	"context"
	"time"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

// Decision sources.
const (
	SourceSchedule = "schedule"
	SourceCommand  = "command"
	SourceAPI      = "api"
)

// DecisionRecord is one evaluation outcome.
type DecisionRecord struct {
	EvaluatedAt time.Time              `json:"evaluated_at"`
	Symbol      string                 `json:"symbol"`
	Family      model.Family           `json:"family"`
	Outcome     string                 `json:"outcome"` // STRATEGY, NO_SIGNAL or DEGRADED
	Reason      string                 `json:"reason,omitempty"`
	Source      string                 `json:"source"`
	Strategy    *model.OptionsStrategy `json:"strategy,omitempty"`
}

// NewDecisionRecord converts an engine decision into a journal row.
func NewDecisionRecord(d strategy.Decision, source string) *DecisionRecord {
	rec := &DecisionRecord{
		EvaluatedAt: d.EvaluatedAt,
		Symbol:      d.Symbol,
		Family:      d.Family,
		Outcome:     d.Outcome(),
		Source:      source,
		Strategy:    d.Strategy,
	}
	if d.Reason != nil {
		rec.Reason = d.Reason.Error()
	}
	return rec
}

// DeliveryEvent records one delivery attempt of a strategy.
type DeliveryEvent struct {
	StrategyID string
	Target     string // "telegram", "redis", ...
	Err        error
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordDecision(ctx context.Context, rec *DecisionRecord) error
	RecordDelivery(ctx context.Context, evt *DeliveryEvent) error
	RecentDecisions(ctx context.Context, symbol string, limit int) ([]DecisionRecord, error)
	Close() error
}
