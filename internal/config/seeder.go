package config

import (
	"log"

	"framecraft/internal/adapters/persistence/models"
	"framecraft/internal/core/domain"
	"framecraft/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedDevUsers(); err != nil {
		log.Printf("⚠️ Dev user seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the default admin user.
// Development/testing only; in production create the admin through a
// secure process.
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash("admin12345")
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    "admin@framecraft.in",
		Username: "admin",
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("🌱 Seeded default admin user (admin@framecraft.in)")
	return nil
}

// seedDevUsers seeds one user per common role for local testing
func (s *Seeder) seedDevUsers() error {
	devRoles := []domain.Role{
		domain.RoleProductionScheduler,
		domain.RoleMeasurementOfficer,
		domain.RoleMeasurementManager,
		domain.RoleAccountsClerk,
		domain.RoleDispatchOfficer,
	}

	for _, role := range devRoles {
		var count int64
		s.db.Model(&models.User{}).Where("role = ?", string(role)).Count(&count)
		if count > 0 {
			continue
		}

		hashed, err := password.Hash(string(role) + "12345")
		if err != nil {
			return err
		}

		user := &models.User{
			Email:    string(role) + "@framecraft.in",
			Username: string(role),
			Password: hashed,
			Role:     string(role),
			IsActive: true,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
	}

	return nil
}
