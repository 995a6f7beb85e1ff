package core

import (
	"strings"
	"time"
)

// NotificationType classifies an inbound event. Frames whose type is not one
// of these values are dropped by the dispatcher without mutating state.
type NotificationType string

// Recognized inbound event types.
const (
	TypeNewRequest          NotificationType = "new_request"
	TypeRequestApproved     NotificationType = "request_approved"
	TypeRequestRejected     NotificationType = "request_rejected"
	TypeBudgetAlert         NotificationType = "budget_alert"
	TypeAutoApproved        NotificationType = "auto_approved"
	TypePackageExpiring     NotificationType = "package_expiring"
	TypeLowBalanceAlert     NotificationType = "low_balance_alert"
	TypeBalanceUpdate       NotificationType = "balance_update"
	TypeBalanceNotification NotificationType = "balance_notification"
)

// KnownTypes returns the set of recognized inbound event types. The returned
// map is a fresh copy safe for caller mutation.
func KnownTypes() map[NotificationType]bool {
	return map[NotificationType]bool{
		TypeNewRequest:          true,
		TypeRequestApproved:     true,
		TypeRequestRejected:     true,
		TypeBudgetAlert:         true,
		TypeAutoApproved:        true,
		TypePackageExpiring:     true,
		TypeLowBalanceAlert:     true,
		TypeBalanceUpdate:       true,
		TypeBalanceNotification: true,
	}
}

// Priority is the severity tier governing local alert behavior. Urgent
// notifications are presented as requiring explicit dismissal.
type Priority string

// Priority tiers, lowest to highest.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the defined tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is a classified event owned by the notification store for the
// lifetime of a session. Read state is mutated only through store operations.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Priority  Priority         `json:"priority"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
	Payload   map[string]any   `json:"payload,omitempty"`
}

// NotificationFromFrame builds a Notification from an accepted inbound frame.
// Missing fields fall back to safe defaults: a generated id, a title derived
// from the event type, and medium priority.
func NotificationFromFrame(f Frame) Notification {
	n := Notification{
		ID:        f.DataString("id"),
		Type:      NotificationType(f.Type),
		Title:     f.DataString("title"),
		Message:   f.DataString("message"),
		Priority:  Priority(f.DataString("priority")),
		CreatedAt: f.Timestamp,
		Payload:   f.Data,
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.Title == "" {
		n.Title = titleForType(n.Type)
	}
	if !n.Priority.Valid() {
		n.Priority = PriorityMedium
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return n
}

// titleForType humanizes an event type ("low_balance_alert" -> "Low balance alert").
func titleForType(t NotificationType) string {
	s := strings.ReplaceAll(string(t), "_", " ")
	if s == "" {
		return "Notification"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
