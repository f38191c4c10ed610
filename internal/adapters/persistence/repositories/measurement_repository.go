package repositories

import (
	"context"
	"time"

	"framecraft/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// measurementRepository implements MeasurementRepository interface
type measurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository creates a new measurement repository
func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

// Create creates a new measurement with its items
func (r *measurementRepository) Create(ctx context.Context, m *models.Measurement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a measurement by ID, items included
func (r *measurementRepository) GetByID(ctx context.Context, id uint) (*models.Measurement, error) {
	var m models.Measurement
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActive lists non-deleted measurements with pagination
func (r *measurementRepository) ListActive(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error) {
	return r.list(ctx, false, offset, limit)
}

// ListDeleted lists soft-deleted measurements with pagination
func (r *measurementRepository) ListDeleted(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error) {
	return r.list(ctx, true, offset, limit)
}

func (r *measurementRepository) list(ctx context.Context, deleted bool, offset, limit int) ([]*models.Measurement, int64, error) {
	var measurements []*models.Measurement
	var total int64

	base := r.db.WithContext(ctx).Model(&models.Measurement{}).Where("is_deleted = ?", deleted)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Where("is_deleted = ?", deleted).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&measurements).Error
	if err != nil {
		return nil, 0, err
	}

	return measurements, total, nil
}

// Update saves measurement scalar fields
func (r *measurementRepository) Update(ctx context.Context, m *models.Measurement) error {
	return r.db.WithContext(ctx).Omit("Items").Save(m).Error
}

// ReplaceItems swaps the measurement's item rows inside a transaction
func (r *measurementRepository) ReplaceItems(ctx context.Context, m *models.Measurement, items []models.MeasurementItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("measurement_id = ?", m.ID).Delete(&models.MeasurementItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].MeasurementID = m.ID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		m.Items = items
		return nil
	})
}

// PurgeDeletedBefore hard-deletes measurements soft-deleted before cutoff
func (r *measurementRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Measurement{}).
			Where("is_deleted = ?", true).
			Where("deleted_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("measurement_id IN ?", ids).Delete(&models.MeasurementItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Measurement{})
		purged = result.RowsAffected
		return result.Error
	})
	return purged, err
}

// CountByStatus counts active measurements grouped by approval status
func (r *measurementRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		ApprovalStatus string
		Count          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Measurement{}).
		Select("approval_status, COUNT(*) as count").
		Where("is_deleted = ?", false).
		Group("approval_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ApprovalStatus] = r.Count
	}
	return counts, nil
}

// CountDeleted counts soft-deleted measurements
func (r *measurementRepository) CountDeleted(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Measurement{}).
		Where("is_deleted = ?", true).
		Count(&count).Error
	return count, err
}
