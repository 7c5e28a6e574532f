// Package notify sends the scheduled customer messages kept in the outbox.
//
// PIECES:
//
//	Scheduler   → a cron timer that calls Dispatcher.Job every DISPATCH_INTERVAL
//	Dispatcher  → claims due rows, hands them to a Sender, records the outcome
//	Sender      → WhatsApp (Cloud API) in production, LogSender when unconfigured
package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps cron-based jobs.
//
// OVERLAPPING RUNS:
// cron starts a job on every tick even if the previous run of the same job
// is still going. A slow WhatsApp API could then have two dispatch runs
// working the same outbox. SkipIfStillRunning drops a tick while the
// previous run is busy; the claim in Dispatcher.RunOnce still guards the
// rows if runs ever overlap some other way.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	cronLogger := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// ScheduleInterval registers job to run every interval, rounded down to
// whole seconds.
func (s *Scheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("notify: interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// cronLogger sends cron's own messages (skipped ticks, recovered panics)
// to slog. cron logs routine scheduling at Info; that is Debug here.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
