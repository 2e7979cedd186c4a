package purchasing

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Metadata is an open key/value document. Unknown keys must be preserved.
type Metadata map[string]any

// Clone returns a shallow copy, or nil for an empty document
func (m Metadata) Clone() Metadata {
	if len(m) == 0 {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StatusHistoryEntry is an immutable record of one status transition.
// FromStatus is nil only for the entry written when the order is created.
type StatusHistoryEntry struct {
	ID         uuid.UUID
	Sequence   int64
	TenantID   uuid.UUID
	OrderID    uuid.UUID
	FromStatus *OrderStatus
	ToStatus   OrderStatus
	ChangedBy  uuid.UUID
	ChangedAt  time.Time
	Notes      string
	Metadata   Metadata
}

// GetTenantID returns the owning tenant
func (e *StatusHistoryEntry) GetTenantID() uuid.UUID {
	return e.TenantID
}

// IsInitial returns true for the creation entry
func (e *StatusHistoryEntry) IsInitial() bool {
	return e.FromStatus == nil
}

func newStatusHistoryEntry(order *PurchaseOrder, from *OrderStatus, to OrderStatus, actorID uuid.UUID, at time.Time, metadata Metadata, notes string) StatusHistoryEntry {
	return StatusHistoryEntry{
		ID:         uuid.New(),
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  actorID,
		ChangedAt:  at,
		Notes:      notes,
		Metadata:   metadata,
	}
}

// SortHistoryNewestFirst orders entries by timestamp descending, ties broken
// by insertion sequence descending.
func SortHistoryNewestFirst(entries []StatusHistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.After(entries[j].ChangedAt)
		}
		return entries[i].Sequence > entries[j].Sequence
	})
}

// StatusSequence returns the to_status values of entries in chronological order
func StatusSequence(entries []StatusHistoryEntry) []OrderStatus {
	ordered := make([]StatusHistoryEntry, len(entries))
	copy(ordered, entries)
	SortHistoryNewestFirst(ordered)

	out := make([]OrderStatus, len(ordered))
	for i := range ordered {
		out[len(ordered)-1-i] = ordered[i].ToStatus
	}
	return out
}
