package testutil

import (
	"time"

	"github.com/aprendecomigo-edu/courier/core"
)

// NotificationBuilder helps construct notifications with fluent chaining for
// tests. Example:
//
//	n := NewNotificationBuilder("n1").Type(core.TypeBudgetAlert).Urgent().Build()
type NotificationBuilder struct {
	n core.Notification
}

// NewNotificationBuilder creates a builder with medium priority and a
// creation time of now.
func NewNotificationBuilder(id string) *NotificationBuilder {
	return &NotificationBuilder{n: core.Notification{
		ID:        id,
		Type:      core.TypeBalanceUpdate,
		Title:     "Notification " + id,
		Priority:  core.PriorityMedium,
		CreatedAt: time.Now().UTC(),
	}}
}

// Type sets the notification type (chainable).
func (b *NotificationBuilder) Type(t core.NotificationType) *NotificationBuilder {
	b.n.Type = t
	return b
}

// Title sets the title (chainable).
func (b *NotificationBuilder) Title(title string) *NotificationBuilder {
	b.n.Title = title
	return b
}

// Message sets the body text (chainable).
func (b *NotificationBuilder) Message(msg string) *NotificationBuilder {
	b.n.Message = msg
	return b
}

// Priority sets the priority tier (chainable).
func (b *NotificationBuilder) Priority(p core.Priority) *NotificationBuilder {
	b.n.Priority = p
	return b
}

// Urgent marks the notification urgent (chainable).
func (b *NotificationBuilder) Urgent() *NotificationBuilder {
	b.n.Priority = core.PriorityUrgent
	return b
}

// Read marks the notification as already read (chainable).
func (b *NotificationBuilder) Read() *NotificationBuilder {
	b.n.Read = true
	return b
}

// CreatedAt overrides the creation time (chainable).
func (b *NotificationBuilder) CreatedAt(t time.Time) *NotificationBuilder {
	b.n.CreatedAt = t
	return b
}

// Build returns the assembled notification.
func (b *NotificationBuilder) Build() core.Notification {
	return b.n
}
