package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/models"
)

var (
	// ErrUnknownUser is returned when the token subject no longer exists.
	ErrUnknownUser = errors.New("permission checker: unknown user")
	// ErrInactiveUser is returned for deactivated accounts.
	ErrInactiveUser = errors.New("permission checker: inactive user")
)

// Identity is the authenticated user together with their role.
type Identity struct {
	UserID   string
	Username string
	FullName string
	Role     string
}

// HasRole reports whether the identity holds any of the supplied roles.
func (i Identity) HasRole(roles ...string) bool {
	if i.Role == "" {
		return false
	}
	for _, role := range roles {
		if role == i.Role {
			return true
		}
	}
	return false
}

// Checker resolves user roles from the database.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs a role checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	return &Checker{db: db}, nil
}

// Resolve loads the identity of the supplied user.
func (c *Checker) Resolve(ctx context.Context, userID string) (Identity, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Identity{}, errors.New("permission checker: user id is required")
	}

	var user models.User
	if err := c.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUnknownUser
		}
		return Identity{}, fmt.Errorf("permission checker: load user: %w", err)
	}

	if !user.IsActive {
		return Identity{}, ErrInactiveUser
	}

	role := user.RoleName()
	if !models.IsKnownRole(role) {
		role = ""
	}

	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     role,
	}, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
