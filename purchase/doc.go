// Package purchase drives the bounded multi-step purchase-authorization flow:
// a strict state machine over plan-selection, user-info, payment and the
// terminal success/error steps.
//
// The Controller owns the flow state; transitions are the only mutation path
// and every read returns a snapshot. Validation failures surface as
// structured field errors and keep the flow in place, transactional failures
// land in the terminal error step with a human-readable message, and a
// processor confirmation that is still in flight is reported distinctly from
// a hard failure so callers can message "pending" instead of "declined".
//
// Client is the HTTP implementation of core.PurchaseAPI with bounded retry
// for transient server errors. The payment processor itself stays behind the
// core.PaymentProcessor capability; this package never talks to it directly.
package purchase
