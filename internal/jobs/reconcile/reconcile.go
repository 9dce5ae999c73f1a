package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 15m"

type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Job repairs approved submissions whose enrollment was never written.
type Job struct {
	reconciler Reconciler
	schedule   string
	logger     *zap.Logger
}

func New(reconciler Reconciler, schedule string, logger *zap.Logger) *Job {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		reconciler: reconciler,
		schedule:   schedule,
		logger:     logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.reconciler == nil {
		return nil
	}

	repaired, err := j.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile enrollments: %w", err)
	}
	if repaired > 0 {
		j.logger.Warn("reconcile enrollments completed", zap.Int("repaired", repaired))
	}
	return nil
}

// Start runs the job once and then on its schedule until ctx is done.
func (j *Job) Start(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(j.schedule, func() { j.runLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule reconcile job %q: %w", j.schedule, err)
	}

	j.runLogged(ctx)
	scheduler.Start()
	j.logger.Info("reconcile job scheduled", zap.String("schedule", j.schedule))

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (j *Job) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := j.Run(ctx); err != nil {
		j.logger.Error("reconcile job failed", zap.Error(err))
	}
}
