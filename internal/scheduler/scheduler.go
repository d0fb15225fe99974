package scheduler

import (
	"context"
	"fmt"
	"log"

	"MarketCharts/internal/collector"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes the series cache on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Specs use the 6-field format with seconds.
func NewScheduler(ctx context.Context, col *collector.Collector) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Ctx:       ctx,
	}
}

// Register adds the refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow refreshes every symbol immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.Ctx.Err() != nil {
		return
	}
	log.Printf("[INFO] refreshing %d symbols", len(s.Collector.Symbols))
	if err := s.Collector.RefreshAll(s.Ctx); err != nil {
		log.Printf("[ERROR] refresh: %v", err)
	}
}
