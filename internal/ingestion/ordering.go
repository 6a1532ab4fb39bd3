package ingestion

import (
	"errors"
	"sort"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

// ErrInvalidOrdering is returned when events are not in chain order.
var ErrInvalidOrdering = errors.New("events are not in chain order")

// SortEvents orders events by (block_number ASC, log_index ASC).
// The sort is stable so events sharing a position keep their input order.
func SortEvents(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i].Meta(), events[j].Meta()) < 0
	})
}

// ValidateEventOrdering checks that events are strictly increasing in chain order.
// Returns ErrInvalidOrdering if not.
func ValidateEventOrdering(events []domain.Event) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1].Meta(), events[i].Meta()) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_number ASC, log_index ASC)
func compareEvents(a, b domain.EventMeta) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}

// afterCursor reports whether meta lies strictly after the saved progress.
func afterCursor(meta domain.EventMeta, cursor *storage.Progress) bool {
	if cursor == nil {
		return true
	}
	return compareEvents(meta, domain.EventMeta{BlockNumber: cursor.BlockNumber, LogIndex: cursor.LogIndex}) > 0
}
