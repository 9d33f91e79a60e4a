package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aatumaykin/trash-expiry/internal/logger"
)

// PassFunc runs one expiry pass.
type PassFunc func(ctx context.Context) *Report

// Scheduler runs expiry passes on a cron schedule (daemon mode).
type Scheduler struct {
	schedule string
	pass     PassFunc
	cron     *cron.Cron
	logger   *logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	passes  sync.WaitGroup
}

// NewScheduler creates a scheduler for a standard cron expression or a
// descriptor such as "@daily".
func NewScheduler(schedule string, pass PassFunc, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	s := &Scheduler{
		schedule: schedule,
		pass:     pass,
		logger:   log.With(logger.Field{Key: "component", Value: "scheduler"}),
	}
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger})))
	return s
}

// Start validates the schedule, runs one pass immediately and then one on
// every tick. Passes never overlap. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already started")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.logger})).Then(cron.FuncJob(s.runPass))
	if _, err := s.cron.AddJob(s.schedule, job); err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule expiry pass: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		logger.Field{Key: "schedule", Value: s.schedule},
		logger.Field{Key: "next_run", Value: s.NextRun()})

	// initial pass shares the skip-if-running wrapper with the cron entries
	s.passes.Add(1)
	go func() {
		defer s.passes.Done()
		job.Run()
	}()

	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop cancels a running pass at its next item boundary and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.passes.Wait()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pass, or the zero time before Start.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runPass() {
	if s.ctx.Err() != nil {
		return
	}
	report := s.pass(s.ctx)
	if report == nil {
		return
	}
	s.logger.Debug("scheduled pass completed",
		logger.Field{Key: "run_id", Value: report.RunID},
		logger.Field{Key: "next_run", Value: s.NextRun()})
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, err, pairs(keysAndValues)...)
}

func pairs(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Field{Key: key, Value: keysAndValues[i+1]})
	}
	return fields
}
