// Package jobs runs scheduled prompts through the same session cache and
// invocation pipeline as interactive turns. Notification and social-posting
// triggers are configured here instead of as separate services.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/haasonsaas/tonari/internal/agent"
	"github.com/haasonsaas/tonari/internal/config"
	"github.com/haasonsaas/tonari/pkg/models"
)

// Scheduler fires configured prompts on cron schedules.
type Scheduler struct {
	cache  *agent.Cache
	cron   *cron.Cron
	logger *slog.Logger

	// ctx bounds every scheduled invocation; Stop cancels it so in-flight
	// jobs cannot stall shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler over the shared session cache.
func NewScheduler(cache *agent.Cache, cfg config.JobsConfig, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cache:  cache,
		cron:   cron.New(),
		logger: logger.With("component", "jobs"),
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range cfg.Jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) }); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule job %q: %w", job.Name, err)
		}
	}
	return s, nil
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels in-flight jobs, halts scheduling, and waits for running
// jobs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// run executes one scheduled prompt and logs the collected response.
func (s *Scheduler) run(job config.JobConfig) {
	ctx := s.ctx
	req := models.InvocationRequest{
		Prompt:    job.Prompt,
		SessionID: job.SessionID,
		ActorID:   job.ActorID,
	}
	req.ApplyDefaults()

	logger := s.logger.With("job", job.Name, "session", req.Key().String())

	a := s.cache.GetOrCreate(ctx, req.Key())
	raw, err := a.Invoke(ctx, models.PlainContent(req.Prompt))
	if err != nil {
		logger.Error("scheduled invocation failed", "error", err)
		return
	}

	var reply strings.Builder
	d := agent.NewDemux(raw)
	for d.Next() {
		if ev := d.Event(); ev.Type == models.EventText {
			reply.WriteString(ev.Text)
		}
	}
	if err := d.Err(); err != nil {
		logger.Error("scheduled stream failed", "error", err)
		return
	}
	logger.Info("scheduled prompt completed", "chars", reply.Len())
}
