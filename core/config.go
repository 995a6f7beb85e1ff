package core

import "time"

// Defaults applied by ChannelConfig.WithDefaults.
const (
	DefaultMaxReconnectAttempts = 5
	DefaultBaseBackoff          = time.Second
)

// ChannelConfig describes one logical channel. It is immutable for the
// lifetime of a session; construct a new session to change it.
//
// EndpointTemplate is an fmt.Sprintf template with a single %s verb that
// receives the bearer credential, e.g.
// "wss://api.example.com/ws/notifications/?token=%s".
type ChannelConfig struct {
	// EndpointTemplate resolves to the socket URL once the credential is known.
	EndpointTemplate string
	// PrincipalID scopes the session; frames for other principals are dropped.
	PrincipalID string
	// SubscriptionTypes are the topic names declared on every successful open.
	SubscriptionTypes []string
	// MaxReconnectAttempts bounds consecutive automatic reconnects (default 5).
	MaxReconnectAttempts int
	// BaseBackoff seeds the exponential reconnect schedule (default 1s).
	BaseBackoff time.Duration
	// ShouldReconnect enables the automatic reconnect policy on abnormal closure.
	ShouldReconnect bool
}

// WithDefaults returns a copy of the config with zero-valued tunables
// replaced by package defaults.
func (c ChannelConfig) WithDefaults() ChannelConfig {
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultBaseBackoff
	}
	return c
}

// Status is the lifecycle phase of a channel session.
type Status string

// Session lifecycle phases.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// ConnectionState is a snapshot of the session lifecycle for UI indicators.
// AttemptCount is reset to zero on any manual reconnect or successful open.
type ConnectionState struct {
	Status       Status `json:"status"`
	LastError    string `json:"last_error,omitempty"`
	AttemptCount int    `json:"attempt_count"`
}
