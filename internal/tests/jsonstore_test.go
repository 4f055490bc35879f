package tests

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"nutrijus/internal/domain"
	"nutrijus/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*storage.JSONStore, string) {
	dir := t.TempDir()
	store, err := storage.NewJSONStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestJSONStore_ProductRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	p := domain.Product{Name: "Ginger Blast", Price: 1500, ProductionCost: 600}
	require.NoError(t, store.CreateProduct(&p))
	assert.NotEmpty(t, p.ID, "missing ids are assigned on create")

	products, err := store.ListProducts()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Ginger Blast", products[0].Name)

	p.Price = 1800
	updated, err := store.UpdateProductByID(p.ID, p)
	require.NoError(t, err)
	assert.Equal(t, 1800, updated.Price)

	deleted, err := store.DeleteProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	products, err = store.ListProducts()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestJSONStore_NewestFirst(t *testing.T) {
	store, _ := newStore(t)

	first := domain.Order{ID: "1"}
	second := domain.Order{ID: "2"}
	require.NoError(t, store.CreateOrder(&first))
	require.NoError(t, store.CreateOrder(&second))

	orders, err := store.ListOrders()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2", orders[0].ID)
}

func TestJSONStore_MissingAndCorruptFiles(t *testing.T) {
	store, dir := newStore(t)

	orders, err := store.ListOrders()
	require.NoError(t, err)
	assert.Empty(t, orders, "a missing file reads as an empty collection")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte("{{{"), 0644))
	orders, err = store.ListOrders()
	require.NoError(t, err)
	assert.Empty(t, orders, "a corrupt file reads as an empty collection")
}

func TestJSONStore_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.UpdateOrderByID("ghost", domain.Order{})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.DeleteOrderAt(5)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.DeleteOrderAt(-1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJSONStore_FreshIDs(t *testing.T) {
	store, _ := newStore(t)

	batch := []domain.Order{{}, {}, {}}
	require.NoError(t, store.CreateOrders(batch))

	orders, err := store.ListOrders()
	require.NoError(t, err)
	require.Len(t, orders, 3)

	seen := map[string]bool{}
	for _, o := range orders {
		assert.NotEmpty(t, o.ID)
		assert.False(t, seen[o.ID], "ids must be unique")
		seen[o.ID] = true
	}
}

func TestJSONStore_ConcurrentCreates(t *testing.T) {
	store, _ := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := domain.Order{}
			assert.NoError(t, store.CreateOrder(&o))
		}()
	}
	wg.Wait()

	orders, err := store.ListOrders()
	require.NoError(t, err)
	assert.Len(t, orders, 20, "concurrent creates must not drop records")
}

func TestJSONStore_ReplaceOrders(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.CreateOrder(&domain.Order{ID: "1"}))
	require.NoError(t, store.ReplaceOrders([]domain.Order{{ID: "a"}, {ID: "b"}}))

	orders, err := store.ListOrders()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "a", orders[0].ID)
}
