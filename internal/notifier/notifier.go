// Package notifier delivers selected strategies to chat and message bus subscribers.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"OptionSentinel/internal/model"
)

// Notifier delivers a selected strategy.
type Notifier interface {
	Notify(ctx context.Context, s *model.OptionsStrategy) error
}

// Target is a named delivery destination.
type Target struct {
	Name     string
	Notifier Notifier
}

// Fanout delivers to every target. One failing target does not stop
// delivery to the others.
type Fanout []Target

// Notify delivers s and joins the target errors.
func (f Fanout) Notify(ctx context.Context, s *model.OptionsStrategy) error {
	return f.Deliver(ctx, s, nil)
}

// Deliver is Notify with a per-target report callback.
func (f Fanout) Deliver(ctx context.Context, s *model.OptionsStrategy, report func(target string, err error)) error {
	var errs []error
	for _, t := range f {
		err := t.Notifier.Notify(ctx, s)
		if report != nil {
			report(t.Name, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
