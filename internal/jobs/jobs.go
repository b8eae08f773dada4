// Package jobs runs scheduled maintenance on top of robfig/cron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/grant-portal/internal/metrics"
)

const jobTimeout = 30 * time.Second

// GrantCloser is the storage the closing job needs.
type GrantCloser interface {
	CloseExpiredGrants(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron instance.  Jobs are skipped while a previous run
// is still going and panics are recovered.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewScheduler(log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "jobs")
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, log: log, now: time.Now}
}

// AddGrantCloser schedules CloseExpired on schedule (standard five-field cron
// syntax or a descriptor such as @hourly).
func (s *Scheduler) AddGrantCloser(schedule string, store GrantCloser) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_, _ = CloseExpired(ctx, store, s.now(), s.log)
	})
	if err != nil {
		return fmt.Errorf("schedule grant closer %q: %w", schedule, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns a context done once running jobs end.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// CloseExpired closes active grants whose deadline is before now.
func CloseExpired(ctx context.Context, store GrantCloser, now time.Time, log logrus.FieldLogger) (int64, error) {
	n, err := store.CloseExpiredGrants(ctx, now)
	if err != nil {
		log.WithError(err).Error("close expired grants failed")
		return 0, err
	}
	metrics.RecordGrantsClosed(n)
	log.WithField("closed", n).Info("closed expired grants")
	return n, nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error("cron: " + msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
