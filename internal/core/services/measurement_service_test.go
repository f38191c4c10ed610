package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"framecraft/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// fakeMeasurementRepo keeps measurements in memory and counts writes
type fakeMeasurementRepo struct {
	records map[uint]*models.Measurement
	nextID  uint
	updates int
}

func newFakeMeasurementRepo() *fakeMeasurementRepo {
	return &fakeMeasurementRepo{records: map[uint]*models.Measurement{}, nextID: 1}
}

func (r *fakeMeasurementRepo) Create(_ context.Context, m *models.Measurement) error {
	m.ID = r.nextID
	r.nextID++
	copied := *m
	r.records[m.ID] = &copied
	return nil
}

func (r *fakeMeasurementRepo) GetByID(_ context.Context, id uint) (*models.Measurement, error) {
	m, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMeasurementRepo) ListActive(_ context.Context, _, _ int) ([]*models.Measurement, int64, error) {
	var out []*models.Measurement
	for _, m := range r.records {
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMeasurementRepo) ListDeleted(_ context.Context, _, _ int) ([]*models.Measurement, int64, error) {
	var out []*models.Measurement
	for _, m := range r.records {
		if m.IsDeleted {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMeasurementRepo) Update(_ context.Context, m *models.Measurement) error {
	r.updates++
	copied := *m
	r.records[m.ID] = &copied
	return nil
}

func (r *fakeMeasurementRepo) ReplaceItems(_ context.Context, m *models.Measurement, items []models.MeasurementItem) error {
	m.Items = items
	return nil
}

func (r *fakeMeasurementRepo) PurgeDeletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for id, m := range r.records {
		if m.IsDeleted && m.DeletedAt != nil && m.DeletedAt.Before(cutoff) {
			delete(r.records, id)
			purged++
		}
	}
	return purged, nil
}

func (r *fakeMeasurementRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, m := range r.records {
		if !m.IsDeleted {
			counts[m.ApprovalStatus]++
		}
	}
	return counts, nil
}

func (r *fakeMeasurementRepo) CountDeleted(_ context.Context) (int64, error) {
	var n int64
	for _, m := range r.records {
		if m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeMeasurementRepo) seed(t *testing.T, m models.Measurement) uint {
	t.Helper()
	if err := r.Create(context.Background(), &m); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m.ID
}

func TestApproveRefusesDecidedRecords(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		record  models.Measurement
		wantErr error
	}{
		{
			"already approved",
			models.Measurement{Number: "FS-20260110-aa11bb", ApprovalStatus: "approved"},
			ErrNotPendingApproval,
		},
		{
			"already rejected",
			models.Measurement{Number: "SS-20260111-cc22dd", ApprovalStatus: "rejected", RejectReason: "off spec"},
			ErrNotPendingApproval,
		},
		{
			"soft deleted",
			models.Measurement{Number: "RF-20260112-ee33ff", ApprovalStatus: "pending_approval", IsDeleted: true, DeleteReason: "duplicate", DeletedAt: &now},
			ErrAlreadyDeleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeMeasurementRepo()
			id := repo.seed(t, tt.record)
			svc := NewMeasurementService(repo)

			_, err := svc.Approve(context.Background(), id, 42)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Approve() error = %v, want %v", err, tt.wantErr)
			}
			if repo.updates != 0 {
				t.Errorf("repo updates = %d, want 0", repo.updates)
			}
		})
	}
}

func TestApprovePendingRecord(t *testing.T) {
	repo := newFakeMeasurementRepo()
	id := repo.seed(t, models.Measurement{Number: "FS-20260110-aa11bb", ApprovalStatus: "pending_approval"})
	svc := NewMeasurementService(repo)

	m, err := svc.Approve(context.Background(), id, 42)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if m.ApprovalStatus != "approved" {
		t.Errorf("ApprovalStatus = %q, want approved", m.ApprovalStatus)
	}
	if m.ApprovedBy == nil || *m.ApprovedBy != 42 {
		t.Errorf("ApprovedBy = %v, want 42", m.ApprovedBy)
	}

	// The same record cannot be approved twice.
	if _, err := svc.Approve(context.Background(), id, 7); !errors.Is(err, ErrNotPendingApproval) {
		t.Errorf("second Approve() error = %v, want ErrNotPendingApproval", err)
	}
}

func TestRejectRefusals(t *testing.T) {
	repo := newFakeMeasurementRepo()
	pendingID := repo.seed(t, models.Measurement{Number: "FS-20260110-aa11bb", ApprovalStatus: "pending_approval"})
	approvedID := repo.seed(t, models.Measurement{Number: "SS-20260111-cc22dd", ApprovalStatus: "approved"})
	svc := NewMeasurementService(repo)

	if _, err := svc.Reject(context.Background(), pendingID, 42, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("Reject(blank reason) error = %v, want ErrReasonRequired", err)
	}
	if _, err := svc.Reject(context.Background(), approvedID, 42, "late"); !errors.Is(err, ErrNotPendingApproval) {
		t.Errorf("Reject(approved) error = %v, want ErrNotPendingApproval", err)
	}
	if repo.updates != 0 {
		t.Errorf("repo updates = %d, want 0", repo.updates)
	}

	m, err := svc.Reject(context.Background(), pendingID, 42, "  wrong dimensions  ")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if m.ApprovalStatus != "rejected" || m.RejectReason != "wrong dimensions" {
		t.Errorf("got status %q reason %q, want rejected / wrong dimensions", m.ApprovalStatus, m.RejectReason)
	}
}

func TestDeleteAndRecoverRefusals(t *testing.T) {
	now := time.Now()
	repo := newFakeMeasurementRepo()
	activeID := repo.seed(t, models.Measurement{Number: "FS-20260110-aa11bb", ApprovalStatus: "approved"})
	deletedID := repo.seed(t, models.Measurement{Number: "SS-20260111-cc22dd", ApprovalStatus: "approved", IsDeleted: true, DeleteReason: "duplicate", DeletedAt: &now})
	svc := NewMeasurementService(repo)

	if _, err := svc.Delete(context.Background(), activeID, ""); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("Delete(blank reason) error = %v, want ErrReasonRequired", err)
	}
	if _, err := svc.Delete(context.Background(), deletedID, "again"); !errors.Is(err, ErrAlreadyDeleted) {
		t.Errorf("Delete(deleted) error = %v, want ErrAlreadyDeleted", err)
	}
	if _, err := svc.Recover(context.Background(), activeID); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("Recover(active) error = %v, want ErrNotDeleted", err)
	}
	if repo.updates != 0 {
		t.Errorf("repo updates = %d, want 0", repo.updates)
	}

	m, err := svc.Recover(context.Background(), deletedID)
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if m.IsDeleted || m.DeleteReason != "" || m.DeletedAt != nil {
		t.Errorf("recovered record still carries delete state: %+v", m)
	}
}

func TestLifecycleUnknownID(t *testing.T) {
	svc := NewMeasurementService(newFakeMeasurementRepo())

	if _, err := svc.Approve(context.Background(), 999, 1); !errors.Is(err, ErrMeasurementNotFound) {
		t.Errorf("Approve() error = %v, want ErrMeasurementNotFound", err)
	}
	if _, err := svc.Recover(context.Background(), 999); !errors.Is(err, ErrMeasurementNotFound) {
		t.Errorf("Recover() error = %v, want ErrMeasurementNotFound", err)
	}
}
