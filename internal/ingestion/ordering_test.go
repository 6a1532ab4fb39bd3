package ingestion

import (
	"testing"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

func TestSortEvents(t *testing.T) {
	events := []domain.Event{deposit(3, 0), deposit(1, 5), deposit(1, 2), deposit(2, 0)}
	SortEvents(events)

	if err := ValidateEventOrdering(events); err != nil {
		t.Fatalf("sorted events failed validation: %v", err)
	}
	want := [][2]uint64{{1, 2}, {1, 5}, {2, 0}, {3, 0}}
	for i, ev := range events {
		m := ev.Meta()
		if m.BlockNumber != want[i][0] || uint64(m.LogIndex) != want[i][1] {
			t.Errorf("events[%d] = (%d, %d), want %v", i, m.BlockNumber, m.LogIndex, want[i])
		}
	}
}

func TestValidateEventOrdering_Duplicate(t *testing.T) {
	events := []domain.Event{deposit(1, 0), deposit(1, 0)}
	if err := ValidateEventOrdering(events); err != ErrInvalidOrdering {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}
}

func TestAfterCursor(t *testing.T) {
	cursor := &storage.Progress{BlockNumber: 10, LogIndex: 3}
	tests := []struct {
		block uint64
		log   uint
		want  bool
	}{
		{10, 3, false},
		{10, 2, false},
		{9, 99, false},
		{10, 4, true},
		{11, 0, true},
	}
	for _, tt := range tests {
		got := afterCursor(domain.EventMeta{BlockNumber: tt.block, LogIndex: tt.log}, cursor)
		if got != tt.want {
			t.Errorf("afterCursor(%d, %d) = %v, want %v", tt.block, tt.log, got, tt.want)
		}
	}
	if !afterCursor(domain.EventMeta{}, nil) {
		t.Error("nil cursor must accept every event")
	}
}
