// Package scheduler runs strategy evaluation on a cron cadence and answers
// chat commands.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"
)

// Evaluator is the part of the strategy engine the scheduler drives.
type Evaluator interface {
	Evaluate(ctx context.Context, symbol string) strategy.Decision
	EvaluateFamily(ctx context.Context, symbol string, family model.Family) strategy.Decision
	EvaluateAll(ctx context.Context, symbol string) []strategy.Decision
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   Evaluator
	Targets  notifier.Fanout
	Recorder recorder.Recorder
	Symbols  []string
	Timeout  time.Duration // per-symbol evaluation deadline
	Parallel int
	Ctx      context.Context
	log      zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine Evaluator, targets notifier.Fanout, rec recorder.Recorder, symbols []string, logger zerolog.Logger) *Scheduler {
	log := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&log)))),
		Engine:   engine,
		Targets:  targets,
		Recorder: rec,
		Symbols:  symbols,
		Timeout:  time.Minute,
		Parallel: 4,
		Ctx:      ctx,
		log:      log,
	}
}

// RegisterAll registers the evaluation task.
func (s *Scheduler) RegisterAll(evaluateCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.evaluateTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Strs("symbols", s.Symbols).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the evaluation task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.evaluateTask()
}

func (s *Scheduler) evaluateTask() {
	s.log.Info().Int("symbols", len(s.Symbols)).Msg("running evaluation task")

	var g errgroup.Group
	if s.Parallel > 0 {
		g.SetLimit(s.Parallel)
	}
	found := make([]bool, len(s.Symbols))
	for i, symbol := range s.Symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
			defer cancel()

			d := s.Engine.Evaluate(ctx, symbol)
			s.record(ctx, d, recorder.SourceSchedule)
			if d.Found() {
				found[i] = true
				s.deliver(ctx, d.Strategy)
			}
			return nil
		})
	}
	g.Wait()

	n := 0
	for _, f := range found {
		if f {
			n++
		}
	}
	s.log.Info().Int("strategies", n).Msg("evaluation task finished")
}

func (s *Scheduler) deliver(ctx context.Context, st *model.OptionsStrategy) {
	err := s.Targets.Deliver(ctx, st, func(target string, err error) {
		if rerr := s.Recorder.RecordDelivery(ctx, &recorder.DeliveryEvent{StrategyID: st.ID, Target: target, Err: err}); rerr != nil {
			s.log.Error().Err(rerr).Msg("record delivery")
		}
	})
	if err != nil {
		s.log.Error().Err(err).Str("strategy", st.Name).Msg("deliver strategy")
	}
}

func (s *Scheduler) record(ctx context.Context, d strategy.Decision, source string) {
	if err := s.Recorder.RecordDecision(ctx, recorder.NewDecisionRecord(d, source)); err != nil {
		s.log.Error().Err(err).Str("symbol", d.Symbol).Msg("record decision")
	}
}

var commandFamilies = map[string]model.Family{
	"/momentum":   model.MomentumBreakout,
	"/reversion":  model.MeanReversion,
	"/volatility": model.VolatilityExpansion,
}

// HandleCommand processes a user command and returns a reply.
// Commands take an optional symbol and default to the first configured one.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	name := strings.ToLower(fields[0])
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at] // "/scan@MyBot"
	}

	symbol := ""
	if len(fields) > 1 {
		symbol = strings.ToUpper(fields[1])
	} else if len(s.Symbols) > 0 {
		symbol = s.Symbols[0]
	}

	if name == "/help" || name == "/start" {
		return notifier.HelpText
	}
	if symbol == "" && (name == "/scan" || commandFamilies[name] != "") {
		return "No symbol given and none configured."
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	switch name {
	case "/scan":
		decisions := s.Engine.EvaluateAll(ctx, symbol)
		for _, d := range decisions {
			s.record(ctx, d, recorder.SourceCommand)
		}
		return notifier.FormatScan(symbol, decisions)
	default:
		family, ok := commandFamilies[name]
		if !ok {
			return notifier.HelpText
		}
		d := s.Engine.EvaluateFamily(ctx, symbol, family)
		s.record(ctx, d, recorder.SourceCommand)
		return notifier.FormatDecision(d)
	}
}
