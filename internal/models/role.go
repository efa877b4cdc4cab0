package models

import "time"

// Canonical role identifiers. They double as primary keys of the roles table.
const (
	RoleResident         = "resident"
	RoleApartmentManager = "apartment_manager"
	RoleAdmin            = "admin"
)

// Role governs which notifications a user sees and where they are routed.
type Role struct {
	ID          string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name        string    `gorm:"type:varchar(64);not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsKnownRole reports whether id names one of the built-in roles.
func IsKnownRole(id string) bool {
	switch id {
	case RoleResident, RoleApartmentManager, RoleAdmin:
		return true
	default:
		return false
	}
}
