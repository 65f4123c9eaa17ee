package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the background jobs: the nightly payment-stage
// sweep and the hourly stale-draft purge.
type SchedulerService struct {
	payments  *PaymentService
	templates *TemplateService
	cron      *cron.Cron
}

func NewSchedulerService(payments *PaymentService, templates *TemplateService) *SchedulerService {
	return &SchedulerService{
		payments:  payments,
		templates: templates,
		cron:      cron.New(),
	}
}

// Start registers the jobs and launches the cron loop.
func (s *SchedulerService) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.runStageSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.runDraftPurge); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Scheduler started (stage sweep nightly, draft purge hourly)")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *SchedulerService) runStageSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	changed, err := s.payments.SweepStages(ctx)
	if err != nil {
		log.Printf("Stage sweep failed: %v", err)
		return
	}
	log.Printf("Stage sweep complete: %d payment terms updated", changed)
}

func (s *SchedulerService) runDraftPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.templates.PurgeStaleDrafts(ctx)
	if err != nil {
		log.Printf("Draft purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Draft purge complete: %d stale drafts removed", purged)
	}
}
