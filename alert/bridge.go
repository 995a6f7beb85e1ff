package alert

import (
	"context"
	"sync"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/logging"
)

// Options holds optional dependencies for NewBridge.
type Options struct {
	// Enabled toggles alert rendering entirely. Defaults to true; the store
	// keeps updating either way.
	Enabled bool
	// Logger receives presentation diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Bridge renders accepted notifications as local alerts and routes alert
// activation back into the store. Safe for concurrent use.
type Bridge struct {
	presenter core.AlertPresenter
	store     core.NotificationStore
	logger    logging.Logger
	enabled   bool

	mu        sync.Mutex
	requested bool
	granted   bool
}

// NewBridge wires an alert presenter to a notification store.
func NewBridge(presenter core.AlertPresenter, store core.NotificationStore, optFns ...func(o *Options)) *Bridge {
	opts := Options{Enabled: true, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bridge{
		presenter: presenter,
		store:     store,
		logger:    opts.Logger,
		enabled:   opts.Enabled,
	}
}

// Start requests the platform alert permission once. The request runs in the
// background and never blocks channel operation; until it resolves, incoming
// notifications simply skip presentation.
func (b *Bridge) Start(ctx context.Context) {
	if !b.enabled || b.presenter == nil {
		return
	}
	b.mu.Lock()
	if b.requested {
		b.mu.Unlock()
		return
	}
	b.requested = true
	b.mu.Unlock()

	go func() {
		granted, err := b.presenter.RequestPermission(ctx)
		if err != nil {
			b.logger.Warn("alert permission request failed", "error", err)
			return
		}
		b.mu.Lock()
		b.granted = granted
		b.mu.Unlock()
		if !granted {
			b.logger.Info("alert permission denied; alerts disabled for this session")
		}
	}()
}

// Present renders an alert for the notification if alerting is enabled and
// permission was granted. Urgent notifications require explicit dismissal.
func (b *Bridge) Present(n core.Notification) {
	if !b.enabled || b.presenter == nil {
		return
	}
	b.mu.Lock()
	granted := b.granted
	b.mu.Unlock()
	if !granted {
		b.logger.Debug("alert skipped: permission not granted", "notification_id", n.ID)
		return
	}
	a := core.Alert{
		ID:                  n.ID,
		Title:               n.Title,
		Body:                n.Message,
		RequiresInteraction: n.Priority == core.PriorityUrgent,
	}
	if err := b.presenter.Show(a); err != nil {
		b.logger.Warn("alert presentation failed", "notification_id", n.ID, "error", err)
	}
}

// Activate handles the user activating a rendered alert: the host app comes
// to the foreground, the alert is dismissed and the originating notification
// is marked read.
func (b *Bridge) Activate(id string) {
	if b.presenter != nil {
		if err := b.presenter.Foreground(); err != nil {
			b.logger.Warn("foreground request failed", "error", err)
		}
		if err := b.presenter.Dismiss(id); err != nil {
			b.logger.Debug("alert dismiss failed", "notification_id", id, "error", err)
		}
	}
	if b.store != nil {
		b.store.MarkRead(id)
	}
}

// PermissionGranted reports whether the platform permission has resolved to
// granted. Primarily useful for status surfaces and tests.
func (b *Bridge) PermissionGranted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.granted
}
