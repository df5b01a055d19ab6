package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDecision(context.Context, *DecisionRecord) error { return nil }
func (n *NoopRecorder) RecordDelivery(context.Context, *DeliveryEvent) error  { return nil }
func (n *NoopRecorder) RecentDecisions(context.Context, string, int) ([]DecisionRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
