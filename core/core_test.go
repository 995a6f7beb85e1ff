package core

import (
	"testing"
	"time"
)

func TestChannelConfig_WithDefaults(t *testing.T) {
	cfg := ChannelConfig{}.WithDefaults()
	if cfg.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.MaxReconnectAttempts)
	}
	if cfg.BaseBackoff != DefaultBaseBackoff {
		t.Fatalf("expected default backoff, got %v", cfg.BaseBackoff)
	}

	cfg = ChannelConfig{MaxReconnectAttempts: 2, BaseBackoff: 50 * time.Millisecond}.WithDefaults()
	if cfg.MaxReconnectAttempts != 2 || cfg.BaseBackoff != 50*time.Millisecond {
		t.Fatalf("explicit tunables were overwritten: %+v", cfg)
	}
}

func TestPriority_Valid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !p.Valid() {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	if Priority("critical").Valid() || Priority("").Valid() {
		t.Fatal("unexpected priority accepted")
	}
}

func TestKnownTypes_ReturnsCopy(t *testing.T) {
	m := KnownTypes()
	if !m[TypeBalanceUpdate] || !m[TypeNewRequest] {
		t.Fatalf("expected recognized types present: %+v", m)
	}
	delete(m, TypeBalanceUpdate)
	if !KnownTypes()[TypeBalanceUpdate] {
		t.Fatal("mutating returned map affected future calls")
	}
}

func TestFrame_Helpers(t *testing.T) {
	sub := NewSubscribeFrame("user-1", []string{"balance_update"})
	if sub.Type != FrameTypeSubscribe {
		t.Fatalf("unexpected type %q", sub.Type)
	}
	if sub.DataString("user_id") != "user-1" {
		t.Fatalf("subscribe frame missing user id: %+v", sub.Data)
	}

	ack := NewAckFrame("n1", "read")
	if ack.DataString("reference_id") != "n1" || ack.DataString("action") != "read" {
		t.Fatalf("ack frame malformed: %+v", ack.Data)
	}
	if _, err := time.Parse(time.RFC3339, ack.DataString("timestamp")); err != nil {
		t.Fatalf("ack timestamp not RFC3339: %v", err)
	}

	pack := NewPurchaseApprovalAckFrame("req-1", "received")
	if pack.Type != FrameTypePurchaseApprovalAck || pack.DataString("request_id") != "req-1" {
		t.Fatalf("purchase ack malformed: %+v", pack)
	}

	var empty Frame
	if empty.DataString("anything") != "" {
		t.Fatal("DataString on nil data should be empty")
	}
}

func TestNotificationFromFrame_Fallbacks(t *testing.T) {
	n := NotificationFromFrame(Frame{Type: "low_balance_alert"})
	if n.ID == "" {
		t.Fatal("missing id should be generated")
	}
	if n.Title != "Low balance alert" {
		t.Fatalf("unexpected derived title %q", n.Title)
	}
	if n.Priority != PriorityMedium {
		t.Fatalf("missing priority should default to medium, got %q", n.Priority)
	}
	if n.CreatedAt.IsZero() {
		t.Fatal("missing timestamp should default to now")
	}
}

func TestNotificationFromFrame_ExplicitFields(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := NotificationFromFrame(Frame{
		Type:      "budget_alert",
		Timestamp: ts,
		Data: map[string]any{
			"id":       "n1",
			"title":    "Budget exceeded",
			"message":  "Monthly budget exceeded",
			"priority": "urgent",
		},
	})
	if n.ID != "n1" || n.Title != "Budget exceeded" || n.Message != "Monthly budget exceeded" {
		t.Fatalf("explicit fields not carried: %+v", n)
	}
	if n.Priority != PriorityUrgent || !n.CreatedAt.Equal(ts) {
		t.Fatalf("priority or timestamp not carried: %+v", n)
	}
	if n.Type != TypeBudgetAlert {
		t.Fatalf("unexpected type %q", n.Type)
	}
}

func TestNotificationFromFrame_InvalidPriority(t *testing.T) {
	n := NotificationFromFrame(Frame{Type: "budget_alert", Data: map[string]any{"priority": "critical"}})
	if n.Priority != PriorityMedium {
		t.Fatalf("invalid priority should fall back to medium, got %q", n.Priority)
	}
}
