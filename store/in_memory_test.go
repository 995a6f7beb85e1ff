package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/internal/testutil"
)

// Interface compliance (compile-time assertion)
var _ core.NotificationStore = (*InMemoryStore)(nil)

func notif(id string) core.Notification {
	return core.Notification{
		ID:       id,
		Type:     core.TypeBalanceUpdate,
		Title:    "Balance updated",
		Message:  "balance changed",
		Priority: core.PriorityMedium,
	}
}

func TestInMemoryStore_PrependsMostRecentFirst(t *testing.T) {
	s := NewInMemoryStore()

	s.Add(notif("a"))
	s.Add(notif("b"))
	s.Add(notif("c"))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[2].ID)
}

func TestInMemoryStore_CapacityEvictsOldest(t *testing.T) {
	s := NewInMemoryStore()

	for i := 0; i < 60; i++ {
		s.Add(notif(fmt.Sprintf("n%d", i)))
	}

	assert.Equal(t, DefaultCapacity, s.Len())
	list := s.List()
	assert.Equal(t, "n59", list[0].ID, "newest entry first")
	assert.Equal(t, "n10", list[len(list)-1].ID, "entries n0..n9 evicted")

	// Evicted ids may be inserted again later.
	assert.True(t, s.Add(notif("n0")))
}

func TestInMemoryStore_DuplicateIDsDropped(t *testing.T) {
	s := NewInMemoryStore()

	assert.True(t, s.Add(notif("a")))
	assert.False(t, s.Add(notif("a")))
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStore_UnreadCountTracksOperations(t *testing.T) {
	s := NewInMemoryStore()

	s.Add(notif("a"))
	s.Add(notif("b"))
	s.Add(notif("c"))
	assert.Equal(t, 3, s.UnreadCount())

	assert.True(t, s.MarkRead("b"))
	assert.Equal(t, 2, s.UnreadCount())

	// Marking an absent entry is a no-op.
	assert.False(t, s.MarkRead("missing"))
	assert.Equal(t, 2, s.UnreadCount())

	s.MarkAllRead()
	assert.Equal(t, 0, s.UnreadCount())

	s.Add(notif("d"))
	assert.Equal(t, 1, s.UnreadCount())

	assert.True(t, s.Clear("d"))
	assert.Equal(t, 0, s.UnreadCount())

	s.Add(notif("e"))
	s.ClearAll()
	assert.Equal(t, 0, s.UnreadCount())
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_ListIsDefensiveCopy(t *testing.T) {
	s := NewInMemoryStore()
	s.Add(notif("a"))

	list := s.List()
	list[0].Read = true

	fresh, ok := s.Get("a")
	require.True(t, ok)
	assert.False(t, fresh.Read, "mutating a snapshot must not touch stored state")
}

func TestInMemoryStore_PreReadEntriesDoNotCountAsUnread(t *testing.T) {
	s := NewInMemoryStore()

	s.Add(testutil.NewNotificationBuilder("a").Read().Build())
	s.Add(testutil.NewNotificationBuilder("b").Urgent().Build())

	assert.Equal(t, 1, s.UnreadCount())

	got, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, core.PriorityUrgent, got.Priority)
}

func TestInMemoryStore_CustomCapacity(t *testing.T) {
	s := NewInMemoryStore(func(o *InMemoryStoreOptions) { o.Capacity = 2 })

	s.Add(notif("a"))
	s.Add(notif("b"))
	s.Add(notif("c"))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "c", s.List()[0].ID)
}
