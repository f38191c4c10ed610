package repositories

import (
	"context"
	"time"

	"framecraft/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// MeasurementRepository defines measurement repository interface
type MeasurementRepository interface {
	Create(ctx context.Context, m *models.Measurement) error
	GetByID(ctx context.Context, id uint) (*models.Measurement, error)
	ListActive(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error)
	ListDeleted(ctx context.Context, offset, limit int) ([]*models.Measurement, int64, error)
	Update(ctx context.Context, m *models.Measurement) error
	ReplaceItems(ctx context.Context, m *models.Measurement, items []models.MeasurementItem) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountDeleted(ctx context.Context) (int64, error)
}
