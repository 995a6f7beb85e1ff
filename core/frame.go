package core

import (
	"time"

	"github.com/google/uuid"
)

// Frame is a single parsed message on a channel. Inbound frames are decoded
// from the wire, filtered by principal and dispatched; outbound frames
// (subscribe, ack) are built by the helpers below and serialized by the wire
// package. A Frame is transient and only lives for one dispatch cycle.
type Frame struct {
	Type        string         `json:"type"`
	Data        map[string]any `json:"data,omitempty"`
	PrincipalID string         `json:"user_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp,omitzero"`
}

// Outbound frame types. Inbound types are the NotificationType values.
const (
	FrameTypeSubscribe           = "subscribe"
	FrameTypeAck                 = "ack"
	FrameTypePurchaseApprovalAck = "purchase_approval_ack"
)

// NewSubscribeFrame declares interest in the given topic names for a
// principal. The channel sends exactly one of these on every successful open.
func NewSubscribeFrame(principalID string, topics []string) Frame {
	return Frame{
		Type: FrameTypeSubscribe,
		Data: map[string]any{
			"user_id":            principalID,
			"subscription_types": topics,
		},
	}
}

// NewAckFrame acknowledges receipt or viewing of the event identified by
// referenceID. Delivery is fire-and-forget; the protocol gives no guarantee
// the server sees it.
func NewAckFrame(referenceID, action string) Frame {
	return Frame{
		Type: FrameTypeAck,
		Data: map[string]any{
			"reference_id": referenceID,
			"action":       action,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// NewPurchaseApprovalAckFrame is the ack variant emitted when a purchase
// approval decision arrives; it carries the originating request id.
func NewPurchaseApprovalAckFrame(requestID, action string) Frame {
	return Frame{
		Type: FrameTypePurchaseApprovalAck,
		Data: map[string]any{
			"request_id": requestID,
			"action":     action,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// DataString returns the string value stored under key in the frame data, or
// "" if absent or of a different type.
func (f Frame) DataString(key string) string {
	if f.Data == nil {
		return ""
	}
	if s, ok := f.Data[key].(string); ok {
		return s
	}
	return ""
}

// NewID generates a new unique identifier for notifications and correlation.
func NewID() string { return uuid.NewString() }
