// Package channel owns one logical real-time connection per Session: dialing,
// the read loop, the reconnect policy and outbound sends. A Session presents
// a stable contract (Connect, Disconnect, Reconnect, SendMessage, State and
// the OnOpen/OnClose/OnError/OnMessage registration points) regardless of
// underlying socket churn.
//
// Reconnection follows an exponential backoff schedule bounded by the channel
// configuration; only abnormal closures trigger it, and after exhaustion the
// session stays down until an explicit manual Reconnect. Each Session owns
// exactly one socket and one set of timers, so independent sessions (one per
// notification domain) coexist without sharing backoff counters or filters.
//
// There is deliberately no package-level connection registry: construct a
// Session with its configuration and collaborators and keep the reference.
package channel
