package services

import (
	"context"

	"framecraft/internal/adapters/persistence/repositories"
	"framecraft/internal/core/domain"
)

// DashboardService aggregates the per-role landing page counts
type DashboardService struct {
	measurementRepo repositories.MeasurementRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(measurementRepo repositories.MeasurementRepository) *DashboardService {
	return &DashboardService{measurementRepo: measurementRepo}
}

// DashboardData represents the measurement dashboard summary
type DashboardData struct {
	PendingApproval int64 `json:"pending_approval"`
	Approved        int64 `json:"approved"`
	Rejected        int64 `json:"rejected"`
	Deleted         int64 `json:"deleted"`
	TotalActive     int64 `json:"total_active"`
}

// GetSummary returns measurement counts for the dashboard
func (s *DashboardService) GetSummary(ctx context.Context) (*DashboardData, error) {
	counts, err := s.measurementRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.measurementRepo.CountDeleted(ctx)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		PendingApproval: counts[string(domain.StatusPendingApproval)],
		Approved:        counts[string(domain.StatusApproved)],
		Rejected:        counts[string(domain.StatusRejected)],
		Deleted:         deleted,
	}
	data.TotalActive = data.PendingApproval + data.Approved + data.Rejected

	return data, nil
}
