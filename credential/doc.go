// Package credential contains concrete implementations of
// core.CredentialStore, the opaque secure key-value capability the channel
// session reads its bearer token from. The in-memory implementation here
// suits tests and single-process tools; platform builds wrap the OS keychain
// or equivalent secure storage behind the same interface.
package credential
