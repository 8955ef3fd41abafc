package cartstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"servicecart/internal/domain/cart"
)

func testItems() []cart.Item {
	return []cart.Item{
		{ID: "svc1", Name: "Deep Cleaning", Price: decimal.RequireFromString("89.99"), Image: "/images/deep-cleaning.jpg", Quantity: 1},
		{ID: "svc2", Name: "Plumbing", Price: decimal.RequireFromString("45.00"), Image: "/images/plumbing.jpg", Quantity: 3},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir(), "cart", zap.NewNop())

	require.NoError(t, s.Save(ctx, cart.New(testItems()...)))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, loaded.Len())
	for _, want := range testItems() {
		got, ok := loaded.Get(want.ID)
		require.True(t, ok, "missing %q after round-trip", want.ID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Image, got.Image)
		assert.Equal(t, want.Quantity, got.Quantity)
		assert.True(t, want.Price.Equal(got.Price))
	}
}

func TestFileStore_LoadMissingSlot(t *testing.T) {
	s := NewFileStore(t.TempDir(), "cart", zap.NewNop())

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestFileStore_LoadCorruptSlot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	s := NewFileStore(dir, "cart", zap.New(core))
	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())

	// Discarding persisted state must not be silent.
	require.Equal(t, 1, logs.FilterMessage("Discarding corrupt cart slot").Len())
}

func TestFileStore_LoadDropsZeroQuantityEntries(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`[` +
		`{"id":"svc1","name":"Deep Cleaning","price":"89.99","image":"","quantity":0},` +
		`{"id":"svc2","name":"Plumbing","price":"45.00","image":"","quantity":2}]`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.json"), data, 0o644))

	s := NewFileStore(dir, "cart", zap.NewNop())
	loaded, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.False(t, loaded.Contains("svc1"))
	got, ok := loaded.Get("svc2")
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
}

func TestFileStore_SaveIsIdempotentOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir(), "cart", zap.NewNop())

	require.NoError(t, s.Save(ctx, cart.New(testItems()...)))
	require.NoError(t, s.Save(ctx, cart.New(testItems()[0])))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestFileStore_ClearRemovesSlotFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir, "cart", zap.NewNop())

	require.NoError(t, s.Save(ctx, cart.New(testItems()...)))
	require.NoError(t, s.Clear(ctx))

	// The slot is removed entirely, not overwritten with an empty list.
	_, err := os.Stat(filepath.Join(dir, "cart.json"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())

	// Clearing an already-clear slot is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	data := []byte(`[{"id":"svc1","name":"X","price":"1.50","image":"","quantity":2,"extra":{"a":1}}]`)

	items, err := decodeItems(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "svc1", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}
