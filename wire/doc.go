// Package wire turns raw channel payloads into typed frames, defensively.
//
// The codec decodes inbound JSON, checks it against an embedded JSON Schema
// and rejects anything malformed without ever propagating a panic or error to
// the transport. The Dispatcher layers the tenant-isolation guarantee on top:
// frames not addressed to the active principal are dropped before any other
// side effect, and frames with unrecognized types are logged and dropped so
// server-added event types cannot corrupt local state.
//
// Consumers (notification store, alert bridge, purchase flow) register
// handlers on the Dispatcher rather than being hard-wired to the session,
// which keeps each of them independently testable.
package wire
