package core

import "context"

// CredentialKeyAuthToken is the key under which the bearer credential is
// stored in a CredentialStore.
const CredentialKeyAuthToken = "auth_token"

// CredentialStore is an opaque secure key-value capability supplying
// credentials such as the bearer token used to resolve the channel endpoint.
// Implementations wrap the platform keychain, secure storage, or an
// in-process map for tests.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// NotificationStore maintains the bounded, ordered collection of classified
// events with read/unread state. Implementations must keep ids unique for
// the lifetime of the session and never exceed their capacity.
type NotificationStore interface {
	// Add inserts a notification at the front (most-recent-first), evicting
	// the oldest entries beyond capacity. It reports false when an entry with
	// the same id already exists (the insert is dropped).
	Add(n Notification) bool
	// Get returns the notification with the given id, if present.
	Get(id string) (Notification, bool)
	// List returns a snapshot of all entries, most-recent-first.
	List() []Notification
	// MarkRead flags the matching entry as read; no-op (false) if absent.
	MarkRead(id string) bool
	// MarkAllRead flags every entry as read.
	MarkAllRead()
	// Clear removes the matching entry; no-op (false) if absent.
	Clear(id string) bool
	// ClearAll removes every entry.
	ClearAll()
	// UnreadCount is derived from current entries, never cached.
	UnreadCount() int
	// Len returns the number of stored entries.
	Len() int
}

// Alert is a rendered OS-level alert derived from a notification.
type Alert struct {
	// ID ties the alert back to the originating notification.
	ID    string
	Title string
	Body  string
	// RequiresInteraction keeps the alert on screen until dismissed
	// explicitly. Set for urgent-priority notifications.
	RequiresInteraction bool
}

// AlertPresenter is the platform alert surface injected into the alert
// bridge. Implementations wrap OS notification centers; tests use fakes.
type AlertPresenter interface {
	// RequestPermission queries (and, if undetermined, requests) the platform
	// alert permission. Called once at bridge startup; it must not be assumed
	// to return quickly, so callers run it off the hot path.
	RequestPermission(ctx context.Context) (bool, error)
	// Show renders the alert. Non-interactive alerts auto-dismiss.
	Show(a Alert) error
	// Dismiss removes a previously shown alert.
	Dismiss(id string) error
	// Foreground brings the host application to the front. Invoked when the
	// user activates a rendered alert.
	Foreground() error
}
