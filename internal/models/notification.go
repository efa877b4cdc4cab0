package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification status values.
const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is a message between building users. A nil ReceiverID marks a
// resident broadcast shown to every apartment manager.
type Notification struct {
	BaseModel

	SenderID   string  `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	Sender     *User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID *string `gorm:"type:varchar(36);index" json:"receiver_id"`
	Receiver   *User   `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text" json:"message"`
	Status   string         `gorm:"type:varchar(16);not null;default:'unread';index" json:"status"`
	Metadata datatypes.JSON `json:"metadata"`

	ReadAt *time.Time `json:"read_at"`
}

// IsBroadcast reports whether the notification has no single receiver.
func (n *Notification) IsBroadcast() bool {
	return n.ReceiverID == nil || *n.ReceiverID == ""
}

// IsRead reports whether the notification has been marked as read.
func (n *Notification) IsRead() bool {
	return n.Status == NotificationRead
}
