package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"framecraft/internal/adapters/persistence/models"
	"framecraft/internal/adapters/persistence/repositories"
	"framecraft/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Measurement errors
var (
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrInvalidType         = errors.New("invalid measurement type")
	ErrNotPendingApproval  = errors.New("measurement is not pending approval")
	ErrAlreadyDeleted      = errors.New("measurement is already deleted")
	ErrNotDeleted          = errors.New("measurement is not deleted")
	ErrReasonRequired      = errors.New("a non-empty reason is required")
	ErrEditApprovedRecord  = errors.New("only pending measurements can be edited")
)

// MeasurementService handles the measurement record lifecycle
type MeasurementService struct {
	repo repositories.MeasurementRepository
}

// NewMeasurementService creates a new measurement service
func NewMeasurementService(repo repositories.MeasurementRepository) *MeasurementService {
	return &MeasurementService{repo: repo}
}

// CreateMeasurementInput represents capture input
type CreateMeasurementInput struct {
	Type      string              `json:"type"`
	PartyName string              `json:"party_name"`
	Items     []map[string]string `json:"items"`
}

// Create captures a new measurement record in pending_approval
func (s *MeasurementService) Create(ctx context.Context, createdBy uint, input *CreateMeasurementInput) (*models.Measurement, error) {
	if !domain.IsValidMeasurementType(input.Type) {
		return nil, ErrInvalidType
	}
	if strings.TrimSpace(input.PartyName) == "" {
		return nil, domain.ErrInvalidInput
	}

	items, err := encodeItems(input.Items)
	if err != nil {
		return nil, err
	}

	m := &models.Measurement{
		Number:         generateNumber(input.Type),
		Type:           input.Type,
		PartyName:      strings.TrimSpace(input.PartyName),
		Items:          items,
		ApprovalStatus: string(domain.StatusPendingApproval),
		CreatedBy:      createdBy,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("✅ Measurement captured: %s (%s)", m.Number, m.Type)
	return m, nil
}

// UpdateMeasurementInput represents edit input
type UpdateMeasurementInput struct {
	PartyName string              `json:"party_name"`
	Items     []map[string]string `json:"items"`
}

// Update edits a measurement while it is still pending approval
func (s *MeasurementService) Update(ctx context.Context, id uint, input *UpdateMeasurementInput) (*models.Measurement, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, ErrAlreadyDeleted
	}
	if m.ApprovalStatus != string(domain.StatusPendingApproval) {
		return nil, ErrEditApprovedRecord
	}

	if name := strings.TrimSpace(input.PartyName); name != "" {
		m.PartyName = name
	}
	if input.Items != nil {
		items, err := encodeItems(input.Items)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceItems(ctx, m, items); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID returns one measurement, deleted or not
func (s *MeasurementService) GetByID(ctx context.Context, id uint) (*models.Measurement, error) {
	return s.get(ctx, id)
}

// ListActive lists non-deleted measurements
func (s *MeasurementService) ListActive(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error) {
	return s.repo.ListActive(ctx, offset, limit)
}

// ListDeleted lists soft-deleted measurements
func (s *MeasurementService) ListDeleted(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error) {
	return s.repo.ListDeleted(ctx, offset, limit)
}

// Approve transitions pending_approval -> approved.
// Deleted records and records already decided are refused.
func (s *MeasurementService) Approve(ctx context.Context, id uint, approverID uint) (*models.Measurement, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, ErrAlreadyDeleted
	}
	if m.ApprovalStatus != string(domain.StatusPendingApproval) {
		return nil, ErrNotPendingApproval
	}

	m.ApprovalStatus = string(domain.StatusApproved)
	m.ApprovedBy = &approverID

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("✅ Measurement approved: %s", m.Number)
	return m, nil
}

// Reject transitions pending_approval -> rejected with a mandatory reason
func (s *MeasurementService) Reject(ctx context.Context, id uint, approverID uint, reason string) (*models.Measurement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, ErrAlreadyDeleted
	}
	if m.ApprovalStatus != string(domain.StatusPendingApproval) {
		return nil, ErrNotPendingApproval
	}

	m.ApprovalStatus = string(domain.StatusRejected)
	m.RejectReason = reason
	m.ApprovedBy = &approverID

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("✅ Measurement rejected: %s", m.Number)
	return m, nil
}

// Delete soft-deletes a measurement with a mandatory reason
func (s *MeasurementService) Delete(ctx context.Context, id uint, reason string) (*models.Measurement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, ErrAlreadyDeleted
	}

	now := time.Now()
	m.IsDeleted = true
	m.DeleteReason = reason
	m.DeletedAt = &now

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("🗑️ Measurement deleted: %s (%s)", m.Number, reason)
	return m, nil
}

// Recover restores a soft-deleted measurement to the active list
func (s *MeasurementService) Recover(ctx context.Context, id uint) (*models.Measurement, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsDeleted {
		return nil, ErrNotDeleted
	}

	m.IsDeleted = false
	m.DeleteReason = ""
	m.DeletedAt = nil

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("♻️ Measurement recovered: %s", m.Number)
	return m, nil
}

func (s *MeasurementService) get(ctx context.Context, id uint) (*models.Measurement, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}
	return m, nil
}

func encodeItems(raw []map[string]string) ([]models.MeasurementItem, error) {
	items := make([]models.MeasurementItem, 0, len(raw))
	for i, fields := range raw {
		encoded, err := encodeFields(fields)
		if err != nil {
			return nil, err
		}
		items = append(items, models.MeasurementItem{
			Position: i,
			Fields:   encoded,
		})
	}
	return items, nil
}

func encodeFields(fields map[string]string) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode item fields: %w", err)
	}
	return string(b), nil
}

// generateNumber builds a human-readable record number like FS-20250901-5f3a2b
func generateNumber(measurementType string) string {
	prefix := "MS"
	switch domain.MeasurementType(measurementType) {
	case domain.TypeFrameSample:
		prefix = "FS"
	case domain.TypeShutterSample:
		prefix = "SS"
	case domain.TypeRegularFrame:
		prefix = "RF"
	case domain.TypeRegularShutter:
		prefix = "RS"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), uuid.New().String()[:6])
}
