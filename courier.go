// Package courier provides a high-level façade over the channel session,
// frame dispatcher, notification store and alert bridge, enabling rapid
// construction of resilient client-side notification pipelines. Most
// applications interact with this package by:
//  1. Creating a Courier via New() (optionally overriding default in-memory services)
//  2. Registering type-specific handlers for events they care about
//  3. Calling Start() to connect and begin receiving notifications
//
// The façade delegates connection management to channel.Session while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a platform
// credential store, an OS alert presenter and a structured logger.
package courier

import (
	"context"

	"github.com/aprendecomigo-edu/courier/alert"
	"github.com/aprendecomigo-edu/courier/channel"
	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/credential"
	"github.com/aprendecomigo-edu/courier/logging"
	"github.com/aprendecomigo-edu/courier/purchase"
	"github.com/aprendecomigo-edu/courier/store"
	"github.com/aprendecomigo-edu/courier/wire"
)

// Options configures the Courier instance.
type Options struct {
	// Credentials supplies the bearer token used to resolve the channel
	// endpoint. Defaults to an in-process store.
	Credentials core.CredentialStore

	// Store holds received notifications. Defaults to a bounded in-memory
	// store keeping the most recent entries.
	Store core.NotificationStore

	// Presenter is the platform alert surface. When nil, local alerts are
	// disabled and notifications only reach the store.
	Presenter core.AlertPresenter

	// PurchaseAPI backs the purchase flow controller. When nil, Purchases()
	// returns nil.
	PurchaseAPI core.PurchaseAPI

	// Channel tuning forwarded to the session.
	ChannelOptions []func(o *channel.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Courier is the high-level façade aggregating the channel session and the
// services built around it.
type Courier struct {
	opts       Options
	session    *channel.Session
	dispatcher *wire.Dispatcher
	store      core.NotificationStore
	bridge     *alert.Bridge
	purchases  *purchase.Controller
	logger     logging.Logger
}

// New creates a Courier for the given channel configuration. Any unset
// service is initialized with an in-memory implementation. Received frames
// are classified, stored and, when a presenter is configured, surfaced as
// local alerts; approval decisions are acknowledged back over the channel.
func New(cfg core.ChannelConfig, optFns ...func(o *Options)) *Courier {
	opts := Options{
		Credentials: credential.NewInMemoryStore(),
		Store:       store.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Credentials == nil {
		opts.Credentials = credential.NewInMemoryStore()
	}
	if opts.Store == nil {
		opts.Store = store.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	channelOpts := append([]func(o *channel.Options){func(o *channel.Options) {
		o.Credentials = opts.Credentials
		o.Logger = opts.Logger
	}}, opts.ChannelOptions...)

	c := &Courier{
		opts:       opts,
		session:    channel.New(cfg, channelOpts...),
		dispatcher: wire.NewDispatcher(cfg.PrincipalID, func(o *wire.DispatcherOptions) { o.Logger = opts.Logger }),
		store:      opts.Store,
		logger:     opts.Logger,
	}

	if opts.Presenter != nil {
		c.bridge = alert.NewBridge(opts.Presenter, opts.Store, func(o *alert.Options) { o.Logger = opts.Logger })
	}
	if opts.PurchaseAPI != nil {
		c.purchases = purchase.NewController(opts.PurchaseAPI, func(o *purchase.ControllerOptions) { o.Logger = opts.Logger })
	}

	c.session.OnMessage(c.dispatcher.Dispatch)
	c.dispatcher.HandleAny(c.ingest)
	c.dispatcher.Handle(core.TypeRequestApproved, c.ackApprovalDecision)
	c.dispatcher.Handle(core.TypeRequestRejected, c.ackApprovalDecision)

	return c
}

// ingest converts an accepted frame into a stored notification and, when the
// alert bridge is active, surfaces it.
func (c *Courier) ingest(f core.Frame) {
	n := core.NotificationFromFrame(f)
	if !c.store.Add(n) {
		c.logger.Debug("duplicate notification dropped", "id", n.ID)
		return
	}
	if c.bridge != nil {
		c.bridge.Present(n)
	}
}

// ackApprovalDecision confirms receipt of a purchase approval decision.
// Delivery is fire-and-forget; a closed channel drops the ack silently.
func (c *Courier) ackApprovalDecision(f core.Frame) {
	requestID := f.DataString("request_id")
	if requestID == "" {
		requestID = f.DataString("id")
	}
	if requestID == "" {
		return
	}
	if err := c.session.SendMessage(core.NewPurchaseApprovalAckFrame(requestID, "received")); err != nil {
		c.logger.Debug("approval ack dropped", "request_id", requestID, "error", err)
	}
}

// Start connects the channel and, when an alert presenter is configured,
// requests alert permission in the background. The context bounds only the
// permission request; the session lives until Close.
func (c *Courier) Start(ctx context.Context) {
	if c.bridge != nil {
		c.bridge.Start(ctx)
	}
	c.session.Connect()
}

// Close tears the channel down. The Courier is not reusable afterwards.
func (c *Courier) Close() {
	c.session.Close()
}

// Session exposes the underlying channel session for state inspection and
// manual reconnect control.
func (c *Courier) Session() *channel.Session { return c.session }

// Notifications returns the notification store.
func (c *Courier) Notifications() core.NotificationStore { return c.store }

// Alerts returns the alert bridge, or nil when no presenter was configured.
func (c *Courier) Alerts() *alert.Bridge { return c.bridge }

// Purchases returns the purchase flow controller, or nil when no purchase
// API was configured.
func (c *Courier) Purchases() *purchase.Controller { return c.purchases }

// On registers a handler for one event type. Handlers run synchronously in
// delivery order, after the built-in store and ack handlers.
func (c *Courier) On(t core.NotificationType, fn func(f core.Frame)) {
	c.dispatcher.Handle(t, fn)
}

// MarkRead flags a stored notification as read and sends a fire-and-forget
// read acknowledgment over the channel.
func (c *Courier) MarkRead(id string) bool {
	if !c.store.MarkRead(id) {
		return false
	}
	_ = c.session.SendAcknowledgment(id, "read")
	return true
}

// SetAuthToken stores the bearer credential used on the next connection
// attempt.
func (c *Courier) SetAuthToken(token string) error {
	return c.opts.Credentials.Set(core.CredentialKeyAuthToken, token)
}
