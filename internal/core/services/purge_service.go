package services

import (
	"context"
	"log"
	"time"

	"framecraft/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// PurgeService runs the nightly retention job: refresh tokens that
// expired or were revoked long ago are hard-deleted, and measurements
// that stayed in the deleted view past the retention window are purged
// for good.
type PurgeService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	measurementRepo  repositories.MeasurementRepository
	retentionDays    int
	cron             *cron.Cron
}

// NewPurgeService creates a new purge service
func NewPurgeService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	measurementRepo repositories.MeasurementRepository,
	retentionDays int,
) *PurgeService {
	return &PurgeService{
		refreshTokenRepo: refreshTokenRepo,
		measurementRepo:  measurementRepo,
		retentionDays:    retentionDays,
		cron:             cron.New(),
	}
}

// Start schedules the nightly purge (02:30 server time)
func (s *PurgeService) Start() error {
	if _, err := s.cron.AddFunc("30 2 * * *", s.runPurge); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 PurgeService started (retention: %d days)", s.retentionDays)
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish
func (s *PurgeService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 PurgeService stopped")
}

func (s *PurgeService) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	if n, err := s.refreshTokenRepo.DeleteStale(ctx, cutoff); err != nil {
		log.Printf("⚠️ Purge: refresh token cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("🗑️ Purge: removed %d stale refresh tokens", n)
	}

	if n, err := s.measurementRepo.PurgeDeletedBefore(ctx, cutoff); err != nil {
		log.Printf("⚠️ Purge: measurement purge failed: %v", err)
	} else if n > 0 {
		log.Printf("🗑️ Purge: removed %d aged deleted measurements", n)
	}
}
