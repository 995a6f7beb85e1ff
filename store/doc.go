// Package store contains concrete implementations of core.NotificationStore.
//
// The canonical NotificationStore interface lives in the core package to
// avoid dependency cycles and keep domain contracts central. Implementation
// packages like this one provide the session-scoped in-memory store; durable
// backends are out of scope since notification history does not survive the
// active session.
//
// Callers should depend on the core interface rather than concrete types so
// they can substitute alternatives in tests.
package store
