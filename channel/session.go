package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/logging"
	"github.com/aprendecomigo-edu/courier/wire"
)

// ErrNotConnected is returned by send operations while the session is not in
// the connected state. The payload is dropped, never queued.
var ErrNotConnected = fmt.Errorf("channel not connected")

// DefaultReconnectGrace is the fixed delay a manual Reconnect waits before
// dialing, letting the prior socket fully close.
const DefaultReconnectGrace = 100 * time.Millisecond

// Options holds dependency and tuning overrides for New.
type Options struct {
	// Credentials supplies the bearer token ("auth_token") used to resolve
	// the endpoint. Defaults to an empty in-process store, which leaves the
	// session disconnected until a token is stored.
	Credentials core.CredentialStore
	// Logger receives lifecycle and drop diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Dialer overrides the websocket dialer (tests, proxies).
	Dialer *websocket.Dialer
	// ReconnectGrace is the fixed delay before a manual Reconnect dials.
	ReconnectGrace time.Duration
	// ReadTimeout, when positive, arms a read deadline refreshed on any
	// inbound traffic (including pongs). A missed deadline surfaces as an
	// abnormal closure feeding the reconnect policy. Zero disables it.
	ReadTimeout time.Duration
}

// Session owns exactly one physical connection for one logical channel.
// All exported methods are safe for concurrent use; callbacks are invoked
// outside the session lock in delivery order.
type Session struct {
	cfg            core.ChannelConfig
	creds          core.CredentialStore
	logger         logging.Logger
	dialer         *websocket.Dialer
	reconnectGrace time.Duration
	readTimeout    time.Duration

	mu               sync.Mutex
	conn             *websocket.Conn
	state            core.ConnectionState
	dialing          bool
	closed           bool
	epoch            int
	reconnectTimer   *time.Timer
	reconnectPending bool

	writeMu sync.Mutex

	onOpen    []func()
	onClose   []func(code int, reason string)
	onError   []func(err error)
	onMessage []func(raw []byte)
}

// New constructs a disconnected Session for the given channel configuration.
func New(cfg core.ChannelConfig, optFns ...func(o *Options)) *Session {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		Dialer:         websocket.DefaultDialer,
		ReconnectGrace: DefaultReconnectGrace,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ReconnectGrace <= 0 {
		opts.ReconnectGrace = DefaultReconnectGrace
	}
	return &Session{
		cfg:            cfg.WithDefaults(),
		creds:          opts.Credentials,
		logger:         opts.Logger,
		dialer:         opts.Dialer,
		reconnectGrace: opts.ReconnectGrace,
		readTimeout:    opts.ReadTimeout,
		state:          core.ConnectionState{Status: core.StatusDisconnected},
	}
}

// OnOpen registers a callback fired after each successful open.
func (s *Session) OnOpen(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = append(s.onOpen, fn)
}

// OnClose registers a callback fired when the connection closes, with the
// websocket close code and reason.
func (s *Session) OnClose(fn func(code int, reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

// OnError registers a callback fired on low-level connection errors.
func (s *Session) OnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, fn)
}

// OnMessage registers a callback receiving each raw inbound payload in
// delivery order.
func (s *Session) OnMessage(fn func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = append(s.onMessage, fn)
}

// State returns a snapshot of the connection state.
func (s *Session) State() core.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens the channel asynchronously. It is a no-op when a connection
// is already open or pending (including a scheduled reconnect). A session
// without a principal or bearer token stays disconnected without dialing;
// the missing token is reported through the connection state, not an error.
func (s *Session) Connect() {
	s.mu.Lock()
	if s.closed || s.conn != nil || s.dialing || s.reconnectTimer != nil {
		s.mu.Unlock()
		return
	}
	if s.cfg.PrincipalID == "" {
		s.state.Status = core.StatusDisconnected
		s.mu.Unlock()
		s.logger.Debug("no principal configured; channel stays disconnected")
		return
	}
	token := s.lookupToken()
	if token == "" {
		s.state.Status = core.StatusDisconnected
		s.state.LastError = "no authentication token found"
		s.mu.Unlock()
		s.logger.Warn("no authentication token found; channel stays disconnected")
		return
	}
	endpoint := resolveEndpoint(s.cfg.EndpointTemplate, token)
	if s.state.AttemptCount > 0 {
		s.state.Status = core.StatusReconnecting
	} else {
		s.state.Status = core.StatusConnecting
	}
	s.dialing = true
	epoch := s.epoch
	s.mu.Unlock()

	go s.dial(endpoint, epoch)
}

func (s *Session) lookupToken() string {
	if s.creds == nil {
		return ""
	}
	token, err := s.creds.Get(core.CredentialKeyAuthToken)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}

// resolveEndpoint substitutes the bearer token into the endpoint template.
// Templates without a verb are used verbatim.
func resolveEndpoint(template, token string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, token)
	}
	return template
}

func (s *Session) dial(endpoint string, epoch int) {
	conn, resp, err := s.dialer.Dial(endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	s.mu.Lock()
	s.dialing = false
	if s.closed || s.epoch != epoch {
		// A manual reconnect that found this dial in flight is resumed now
		// that the socket path is free.
		retry := s.reconnectPending && !s.closed
		s.reconnectPending = false
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		if retry {
			s.Connect()
		}
		return
	}
	if err != nil {
		// A failed dial behaves like an abnormal closure: surface the error
		// and let the reconnect policy decide.
		s.state.Status = core.StatusDisconnected
		s.state.LastError = errorText(err)
		errFns := make([]func(err error), len(s.onError))
		copy(errFns, s.onError)
		s.scheduleReconnectLocked()
		s.mu.Unlock()
		s.logger.Warn("channel dial failed", "error", err)
		for _, fn := range errFns {
			fn(err)
		}
		return
	}

	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		})
	}

	s.conn = conn
	s.state.Status = core.StatusConnected
	s.state.LastError = ""
	s.state.AttemptCount = 0
	openFns := make([]func(), len(s.onOpen))
	copy(openFns, s.onOpen)
	s.mu.Unlock()

	s.logger.Info("channel connected", "principal_id", s.cfg.PrincipalID)
	for _, fn := range openFns {
		fn()
	}
	s.sendSubscription()

	go s.readLoop(conn, epoch)
}

// sendSubscription declares interest for the configured topics. Sent exactly
// once per successful open.
func (s *Session) sendSubscription() {
	if len(s.cfg.SubscriptionTypes) == 0 {
		return
	}
	frame := core.NewSubscribeFrame(s.cfg.PrincipalID, s.cfg.SubscriptionTypes)
	if err := s.sendFrame(frame); err != nil {
		s.logger.Warn("subscription send failed", "error", err)
	}
}

func (s *Session) readLoop(conn *websocket.Conn, epoch int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(conn, epoch, err)
			return
		}
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		s.mu.Lock()
		stale := s.closed || s.epoch != epoch
		msgFns := make([]func(raw []byte), len(s.onMessage))
		copy(msgFns, s.onMessage)
		s.mu.Unlock()
		if stale {
			return
		}
		for _, fn := range msgFns {
			fn(raw)
		}
	}
}

func (s *Session) handleReadError(conn *websocket.Conn, epoch int, err error) {
	_ = conn.Close()

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		// Teardown or an intentional disconnect already owned this socket.
		s.mu.Unlock()
		return
	}
	s.epoch++
	s.conn = nil
	s.state.Status = core.StatusDisconnected

	code := websocket.CloseAbnormalClosure
	reason := ""
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		code = closeErr.Code
		reason = closeErr.Text
	}
	normal := code == websocket.CloseNormalClosure

	var errFns []func(err error)
	if !normal {
		s.state.LastError = errorText(err)
		errFns = make([]func(err error), len(s.onError))
		copy(errFns, s.onError)
		s.scheduleReconnectLocked()
	}
	closeFns := make([]func(code int, reason string), len(s.onClose))
	copy(closeFns, s.onClose)
	attempt := s.state.AttemptCount
	s.mu.Unlock()

	s.logger.Info("channel closed", "code", code, "reason", reason, "attempt", attempt)
	for _, fn := range errFns {
		fn(err)
	}
	for _, fn := range closeFns {
		fn(code, reason)
	}
}

// scheduleReconnectLocked arms the backoff timer after an abnormal closure.
// Caller must hold s.mu. The delay doubles per consecutive attempt
// (base * 2^attempt); the attempt counter increments before scheduling. Once
// attempts are exhausted the session stays down until a manual Reconnect.
func (s *Session) scheduleReconnectLocked() {
	if !s.cfg.ShouldReconnect {
		return
	}
	if s.state.AttemptCount >= s.cfg.MaxReconnectAttempts {
		s.state.LastError = fmt.Sprintf("reconnect attempts exhausted after %d tries", s.cfg.MaxReconnectAttempts)
		return
	}
	delay := backoffDelay(s.cfg.BaseBackoff, s.state.AttemptCount)
	s.state.AttemptCount++
	s.state.Status = core.StatusReconnecting
	epoch := s.epoch
	s.reconnectTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.reconnectTimer = nil
		if s.closed || s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.Connect()
	})
}

// Disconnect closes the connection with a normal-closure code. It never
// triggers the reconnect policy and cancels any pending automatic reconnect.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.cancelReconnectLocked()
	conn := s.conn
	s.conn = nil
	s.epoch++
	s.state.Status = core.StatusDisconnected
	closeFns := make([]func(code int, reason string), len(s.onClose))
	copy(closeFns, s.onClose)
	s.mu.Unlock()

	if conn != nil {
		s.closeNormally(conn, "client disconnect")
		for _, fn := range closeFns {
			fn(websocket.CloseNormalClosure, "client disconnect")
		}
	}
}

// Reconnect performs a manual reconnect: it disconnects cleanly, resets the
// attempt counter and last error, and dials again after a short fixed delay.
// This intentionally bypasses the exponential schedule, including after
// exhaustion. The grace timer counts as a pending connection, so a Connect
// issued during the window is a no-op rather than a competing dial; a dial
// already in flight when the grace expires is retried once it settles.
func (s *Session) Reconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelReconnectLocked()
	conn := s.conn
	s.conn = nil
	s.epoch++
	epoch := s.epoch
	s.state.AttemptCount = 0
	s.state.LastError = ""
	s.state.Status = core.StatusConnecting
	s.reconnectTimer = time.AfterFunc(s.reconnectGrace, func() {
		s.mu.Lock()
		s.reconnectTimer = nil
		if s.closed || s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		if s.conn != nil {
			// A connection appeared during the grace window; keep it.
			s.mu.Unlock()
			return
		}
		if s.dialing {
			// A stale dial still owns the socket path. Flag the reconnect so
			// the dial's completion re-triggers Connect instead of dropping it.
			s.reconnectPending = true
			s.mu.Unlock()
			return
		}
		// Reset transient status so Connect's pending guard lets the dial through.
		s.state.Status = core.StatusDisconnected
		s.mu.Unlock()
		s.Connect()
	})
	s.mu.Unlock()

	if conn != nil {
		s.closeNormally(conn, "manual reconnect")
	}
}

// Close tears the session down synchronously: the socket is closed, pending
// reconnect timers are cancelled, and any timer callback that still fires
// becomes a no-op. The session cannot be reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelReconnectLocked()
	conn := s.conn
	s.conn = nil
	s.epoch++
	s.state.Status = core.StatusDisconnected
	s.mu.Unlock()

	if conn != nil {
		s.closeNormally(conn, "session closed")
	}
}

func (s *Session) cancelReconnectLocked() {
	s.reconnectPending = false
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

func (s *Session) closeNormally(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		s.logger.Debug("close handshake write failed", "error", err)
	}
	_ = conn.Close()
}

// SendMessage serializes the payload (passed through when already a string
// or raw bytes) and writes it to the socket. While not connected it drops
// the payload, logs a warning and returns ErrNotConnected so callers can
// see the data loss.
func (s *Session) SendMessage(payload any) error {
	data, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("serialize payload: %w", err)
	}
	return s.send(data)
}

// SendAcknowledgment emits a typed ack frame for the referenced event.
// Acks are fire-and-forget: while disconnected they are dropped without
// error, and delivery is never guaranteed.
func (s *Session) SendAcknowledgment(referenceID, action string) error {
	frame := core.NewAckFrame(referenceID, action)
	if err := s.sendFrame(frame); err != nil {
		if errors.Is(err, ErrNotConnected) {
			s.logger.Debug("ack dropped while disconnected", "reference_id", referenceID, "action", action)
			return nil
		}
		return err
	}
	return nil
}

func (s *Session) sendFrame(f core.Frame) error {
	data, err := wire.Encode(f)
	if err != nil {
		return err
	}
	return s.send(data)
}

func (s *Session) send(data []byte) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state.Status == core.StatusConnected
	s.mu.Unlock()
	if conn == nil || !connected {
		s.logger.Warn("send dropped: channel not connected")
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func marshalPayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	default:
		return json.Marshal(p)
	}
}

// backoffDelay returns the reconnect delay for the given attempt ordinal:
// base * 2^attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << attempt
}

func errorText(err error) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return "connection error"
	}
	return err.Error()
}
