// Package scheduler runs the maintenance cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is the work run on every tick.
type Job func(ctx context.Context)

// Scheduler wraps a cron runner with a single maintenance entry. Overlapping
// ticks are skipped.
type Scheduler struct {
	Cron     *cron.Cron
	schedule string
	ctx      context.Context
	cancel   context.CancelFunc
}

// New registers job under the standard five-field cron expression. An empty schedule
// returns a scheduler with no entries.
func New(schedule string, job Job) (*Scheduler, error) {
	log := cronLogger{entry: logger.Component("scheduler")}
	c := cron.New(cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{Cron: c, schedule: schedule, ctx: ctx, cancel: cancel}
	if schedule == "" {
		return s, nil
	}
	if _, err := c.AddFunc(schedule, func() { job(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Schedule returns the configured expression, empty when maintenance is manual.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	if len(s.Cron.Entries()) == 0 {
		return
	}
	logger.Component("scheduler").WithField("schedule", s.schedule).Info("maintenance scheduler started")
	s.Cron.Start()
}

// Stop cancels any running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.Cron.Stop().Done()
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
