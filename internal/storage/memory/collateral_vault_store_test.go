package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"neuron-vault-indexer/internal/domain"
	"neuron-vault-indexer/internal/storage"
)

func TestCollateralVaultStore_UpsertAndGet(t *testing.T) {
	store := NewCollateralVaultStore()
	ctx := context.Background()

	v := &domain.CollateralVault{ID: "0xvault", Address: "0xvault"}
	if err := store.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "0xvault")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TVL != nil {
		t.Errorf("Expected nil TVL before first balance read, got %s", got.TVL)
	}

	v.TVL = big.NewInt(500)
	if err := store.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, _ = store.Get(ctx, "0xvault")
	if got.TVL.Int64() != 500 {
		t.Errorf("TVL mismatch: got %s, want 500", got.TVL)
	}
}

func TestCollateralVaultStore_NotFound(t *testing.T) {
	store := NewCollateralVaultStore()

	_, err := store.Get(context.Background(), "0xmissing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPoolPriceStore_SameIDOverwrites(t *testing.T) {
	store := NewPoolPriceStore()
	ctx := context.Background()

	p := &domain.NeuronPoolsPrice{ID: "0xpool-1000", Address: "0xpool", Price: big.NewInt(7), Timestamp: 1000}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	p2 := &domain.NeuronPoolsPrice{ID: "0xpool-1000", Address: "0xpool", Price: big.NewInt(8), Timestamp: 1000}
	if err := store.Upsert(ctx, p2); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("Expected 1 snapshot, got %d", store.Len())
	}
	got, _ := store.Get(ctx, "0xpool-1000")
	if got.Price.Int64() != 8 {
		t.Errorf("Price mismatch: got %s, want 8", got.Price)
	}
}

func TestProgressStore(t *testing.T) {
	store := NewProgressStore()
	ctx := context.Background()

	_, err := store.GetLastProcessed(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := store.SetLastProcessed(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	if err := store.SetLastProcessed(ctx, &storage.Progress{BlockNumber: 10, LogIndex: 3}); err != nil {
		t.Fatalf("SetLastProcessed failed: %v", err)
	}

	got, err := store.GetLastProcessed(ctx)
	if err != nil {
		t.Fatalf("GetLastProcessed failed: %v", err)
	}
	if got.BlockNumber != 10 || got.LogIndex != 3 {
		t.Errorf("Progress mismatch: got %+v", got)
	}
}
