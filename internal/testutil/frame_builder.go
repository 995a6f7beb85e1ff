package testutil

import (
	"encoding/json"
	"time"

	"github.com/aprendecomigo-edu/courier/core"
)

// FrameBuilder provides a fluent helper for constructing inbound frames in
// tests. Example:
//
//	f := NewFrameBuilder("balance_update").Principal("user-1").Data("id", "n1").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type FrameBuilder struct {
	frameType   string
	principalID string
	timestamp   time.Time
	data        map[string]any
}

// NewFrameBuilder creates a builder for the given frame type.
func NewFrameBuilder(frameType string) *FrameBuilder {
	return &FrameBuilder{frameType: frameType, data: map[string]any{}}
}

// Principal sets the owning principal id (chainable).
func (b *FrameBuilder) Principal(id string) *FrameBuilder { b.principalID = id; return b }

// Timestamp sets the frame timestamp (chainable).
func (b *FrameBuilder) Timestamp(t time.Time) *FrameBuilder { b.timestamp = t; return b }

// Data sets one data payload entry (chainable).
func (b *FrameBuilder) Data(key string, value any) *FrameBuilder {
	b.data[key] = value
	return b
}

// Notification fills the data entries commonly carried by notification
// frames (chainable).
func (b *FrameBuilder) Notification(id, title, message string, priority core.Priority) *FrameBuilder {
	b.data["id"] = id
	b.data["title"] = title
	b.data["message"] = message
	b.data["priority"] = string(priority)
	return b
}

// Build assembles the frame.
func (b *FrameBuilder) Build() core.Frame {
	data := make(map[string]any, len(b.data))
	for k, v := range b.data {
		data[k] = v
	}
	return core.Frame{
		Type:        b.frameType,
		PrincipalID: b.principalID,
		Timestamp:   b.timestamp,
		Data:        data,
	}
}

// BuildJSON assembles the frame and serializes it as it would arrive on the
// wire. Panics on marshal failure, which cannot happen for builder input.
func (b *FrameBuilder) BuildJSON() []byte {
	raw, err := json.Marshal(b.Build())
	if err != nil {
		panic(err)
	}
	return raw
}
