package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the assistant's periodic jobs (session sweep, daily report).
// Specs are interpreted in UTC.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job. Failures of a run are logged, not propagated.
func (s *Scheduler) Add(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			log.Printf("❌ Scheduled job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	log.Printf("📅 Scheduled %s: %s", name, spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("📅 Scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish, then cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
