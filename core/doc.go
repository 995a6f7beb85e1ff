// Package core provides the foundational domain types and contracts used by
// Courier. It defines the core abstractions for:
//
//   - Frames (single inbound/outbound messages on a channel)
//   - Notifications (classified, user-scoped events with read state)
//   - Channel configuration and connection state
//   - Pluggable capabilities for credentials, local alerts, the transactional
//     purchase API and the payment processor
//
// The package intentionally keeps implementation concerns (sockets, stores,
// state machines) out of scope, exposing small interfaces so calling code can
// substitute concrete backends and platform surfaces. Implementation packages
// (channel, store, alert, purchase, credential) depend on these contracts
// rather than on each other.
package core
