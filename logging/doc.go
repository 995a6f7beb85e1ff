// Package logging provides a minimal logging interface and adapters for Courier.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the channel session, dispatcher, stores and the purchase
// flow use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - CourierLogger with contextual helpers (channel, principal) and domain
//     specific logging for frames, connection transitions and purchase steps
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	session := channel.New(cfg, func(o *channel.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
