package services

import (
	"context"
	"log"
	"time"

	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/config"
	"passport-portal/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	renewals         *RenewalService
	metrics          *metrics.Metrics
	timeout          time.Duration
}

// NewCronService creates a new cron service and registers its jobs
func NewCronService(
	cfg config.CronConfig,
	refreshTokenRepo repositories.RefreshTokenRepository,
	renewals *RenewalService,
	m *metrics.Metrics,
) (*CronService, error) {
	s := &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		renewals:         renewals,
		metrics:          m,
		timeout:          time.Minute,
	}

	if _, err := s.cron.AddFunc(cfg.TokenPurgeSpec, s.PurgeExpiredTokens); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.PendingBacklogSpec, s.ReportPendingBacklog); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the scheduler
func (s *CronService) Start() {
	s.cron.Start()
	log.Printf("🚀 CronService started (%d jobs)", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// PurgeExpiredTokens deletes expired and revoked refresh tokens
func (s *CronService) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("❌ Refresh token purge failed: %v", err)
		return
	}
	s.metrics.AddPurgedTokens(n)
	if n > 0 {
		log.Printf("🧹 Purged %d refresh tokens", n)
	}
}

// ReportPendingBacklog logs and exports how many renewals wait for review
func (s *CronService) ReportPendingBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.renewals.PendingCount(ctx)
	if err != nil {
		log.Printf("❌ Pending backlog check failed: %v", err)
		return
	}
	s.metrics.SetPendingBacklog(n)
	log.Printf("📋 Renewals pending review: %d", n)
}
