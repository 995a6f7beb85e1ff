package wire

import (
	"errors"
	"sync"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/logging"
)

// HandlerFunc consumes an accepted inbound frame. Handlers run synchronously
// in delivery order; the dispatcher performs no buffering or reordering.
type HandlerFunc func(f core.Frame)

// DispatcherOptions holds optional dependencies for NewDispatcher.
type DispatcherOptions struct {
	// Logger receives drop diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher routes decoded frames to per-type handler registrations. It
// enforces, in order: structural validity, principal scoping, and type
// recognition. A frame failing any of these never reaches a handler.
type Dispatcher struct {
	principalID string
	known       map[core.NotificationType]bool
	logger      logging.Logger

	mu       sync.RWMutex
	handlers map[core.NotificationType][]HandlerFunc
	catchAll []HandlerFunc
}

// NewDispatcher creates a dispatcher scoped to the given principal.
func NewDispatcher(principalID string, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		principalID: principalID,
		known:       core.KnownTypes(),
		logger:      opts.Logger,
		handlers:    make(map[core.NotificationType][]HandlerFunc),
	}
}

// Handle registers a handler for one event type. Registration order defines
// invocation order.
func (d *Dispatcher) Handle(t core.NotificationType, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], fn)
}

// HandleAny registers a handler invoked for every accepted frame, after any
// type-specific handlers.
func (d *Dispatcher) HandleAny(fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.catchAll = append(d.catchAll, fn)
}

// Dispatch decodes and routes one raw payload. It never panics and never
// returns: every failure mode is a protocol error that is logged and dropped
// so the read loop survives arbitrary server input.
func (d *Dispatcher) Dispatch(raw []byte) {
	f, err := Decode(raw)
	if err != nil {
		reason := "malformed payload"
		if errors.Is(err, ErrInvalidFrame) {
			reason = "schema violation"
		}
		d.logger.Warn("dropping inbound frame", "reason", reason, "error", err)
		return
	}

	// Tenant isolation: enforced before any other side effect.
	if f.PrincipalID != d.principalID {
		d.logger.Debug("dropping frame for foreign principal", "frame_type", f.Type)
		return
	}

	t := core.NotificationType(f.Type)
	if !d.known[t] {
		d.logger.Warn("dropping frame with unknown type", "frame_type", f.Type)
		return
	}

	d.mu.RLock()
	typed := append([]HandlerFunc(nil), d.handlers[t]...)
	catchAll := append([]HandlerFunc(nil), d.catchAll...)
	d.mu.RUnlock()

	for _, fn := range typed {
		fn(f)
	}
	for _, fn := range catchAll {
		fn(f)
	}
}
