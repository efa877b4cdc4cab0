package models

// User is a resident, apartment manager or admin of the building.
type User struct {
	BaseModel

	Username string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	RoleID *string `gorm:"type:varchar(32);index" json:"role_id"`
	Role   *Role   `json:"role,omitempty"`
}

// RoleName returns the user's role identifier or an empty string when unassigned.
func (u *User) RoleName() string {
	if u == nil || u.RoleID == nil {
		return ""
	}
	return *u.RoleID
}
