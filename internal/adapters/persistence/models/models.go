package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username     string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password     string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:40;not null;index" json:"role"`
	ProfileImage string         `gorm:"size:255" json:"profile_image,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Production: Measurement Tables
// ============================================================

// Measurement represents measurements table.
// Soft deletion is explicit (is_deleted + deleted_at) rather than
// gorm.DeletedAt: deleted records stay queryable in the deleted view
// and can be recovered.
type Measurement struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Number         string            `gorm:"uniqueIndex;size:40;not null" json:"number"`
	Type           string            `gorm:"size:30;not null;index" json:"type"`
	PartyName      string            `gorm:"size:120;not null" json:"party_name"`
	Items          []MeasurementItem `gorm:"foreignKey:MeasurementID" json:"items"`
	ApprovalStatus string            `gorm:"size:20;not null;default:'pending_approval';index" json:"approval_status"`
	RejectReason   string            `gorm:"type:text" json:"reject_reason,omitempty"`
	IsDeleted      bool              `gorm:"default:false;index" json:"is_deleted"`
	DeleteReason   string            `gorm:"type:text" json:"delete_reason,omitempty"`
	DeletedAt      *time.Time        `gorm:"index" json:"deleted_at,omitempty"`
	CreatedBy      uint              `gorm:"index;not null" json:"created_by"`
	ApprovedBy     *uint             `json:"approved_by,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Measurement) TableName() string {
	return "measurements"
}

// MeasurementItem represents measurement_items table.
// Fields holds the capture form's field map as JSON; its keys differ
// per measurement type and the server treats it as opaque.
type MeasurementItem struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	MeasurementID uint   `gorm:"index;not null" json:"measurement_id"`
	Position      int    `gorm:"not null" json:"position"`
	Fields        string `gorm:"type:json" json:"fields"`
}

func (MeasurementItem) TableName() string {
	return "measurement_items"
}

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Measurement{},
		&MeasurementItem{},
	)
}
