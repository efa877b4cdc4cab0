package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Notification{},
	)
}

// SeedData populates the built-in roles.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			ID:          models.RoleResident,
			Name:        "Resident",
			Description: "Tenant of a room in the building",
		},
		{
			ID:          models.RoleApartmentManager,
			Name:        "Apartment Manager",
			Description: "Manages rooms and residents",
		},
		{
			ID:          models.RoleAdmin,
			Name:        "Administrator",
			Description: "Oversees apartment managers",
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{ID: role.ID}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	return nil
}
