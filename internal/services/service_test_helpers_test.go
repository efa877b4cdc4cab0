package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/database/testutil"
	"github.com/charlesng35/apartment/internal/models"
)

type fixture struct {
	db        *gorm.DB
	resident  models.User
	neighbour models.User
	manager   models.User
	colleague models.User
	admin     models.User
	base      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	f := &fixture{
		db:   db,
		base: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	f.resident = f.user(t, "an", "Nguyen Van An", models.RoleResident)
	f.neighbour = f.user(t, "binh", "Le Thi Binh", models.RoleResident)
	f.manager = f.user(t, "lan", "Tran Lan", models.RoleApartmentManager)
	f.colleague = f.user(t, "minh", "Pham Minh", models.RoleApartmentManager)
	f.admin = f.user(t, "root", "Site Admin", models.RoleAdmin)
	return f
}

func (f *fixture) user(t *testing.T, username, fullName, role string) models.User {
	t.Helper()
	roleID := role
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: fullName,
		RoleID:   &roleID,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

// notify stores a notification created offset after the fixture base time.
// A nil receiver stores a broadcast.
func (f *fixture) notify(t *testing.T, sender models.User, receiver *models.User, title string, offset time.Duration) models.Notification {
	t.Helper()
	notification := models.Notification{
		BaseModel: models.BaseModel{CreatedAt: f.base.Add(offset)},
		SenderID:  sender.ID,
		Title:     title,
		Message:   title + " details",
		Status:    models.NotificationUnread,
	}
	if receiver != nil {
		id := receiver.ID
		notification.ReceiverID = &id
	}
	require.NoError(t, f.db.Create(&notification).Error)
	return notification
}

func (f *fixture) service(t *testing.T) *NotificationService {
	t.Helper()
	svc, err := NewNotificationService(f.db, NotificationConfig{})
	require.NoError(t, err)
	return svc
}

func viewerOf(user models.User) Viewer {
	return Viewer{UserID: user.ID, Role: user.RoleName()}
}

func titles(page *HistoryPage) []string {
	out := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, item.Title)
	}
	return out
}
