package purchasing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortHistoryNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []StatusHistoryEntry{
		{Sequence: 1, ToStatus: OrderStatusPending, ChangedAt: base},
		{Sequence: 3, ToStatus: OrderStatusShipped, ChangedAt: base.Add(time.Minute)},
		{Sequence: 2, ToStatus: OrderStatusConfirmed, ChangedAt: base.Add(time.Minute)},
	}

	SortHistoryNewestFirst(entries)

	assert.Equal(t, OrderStatusShipped, entries[0].ToStatus)
	assert.Equal(t, OrderStatusConfirmed, entries[1].ToStatus)
	assert.Equal(t, OrderStatusPending, entries[2].ToStatus)
}

func TestStatusSequence(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []StatusHistoryEntry{
		{Sequence: 3, ToStatus: OrderStatusShipped, ChangedAt: base.Add(2 * time.Second)},
		{Sequence: 1, ToStatus: OrderStatusPending, ChangedAt: base},
		{Sequence: 2, ToStatus: OrderStatusConfirmed, ChangedAt: base.Add(time.Second)},
	}

	assert.Equal(t, []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped}, StatusSequence(entries))
	// input order is untouched
	assert.Equal(t, OrderStatusShipped, entries[0].ToStatus)
}

func TestMetadata_Clone(t *testing.T) {
	assert.Nil(t, Metadata{}.Clone())

	m := Metadata{"a": 1}
	c := m.Clone()
	c["b"] = 2
	assert.NotContains(t, m, "b")
}
