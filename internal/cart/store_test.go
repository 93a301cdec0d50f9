package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalComparer lets cmp treat 50 and 50.00 as the same price.
var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

type countingSlot struct {
	*storage.MemorySlot
	saves   int
	saveErr error
	loadErr error
}

func (c *countingSlot) Load(ctx context.Context, key string) ([]byte, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.MemorySlot.Load(ctx, key)
}

func (c *countingSlot) Save(ctx context.Context, key string, value []byte) error {
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.MemorySlot.Save(ctx, key, value)
}

func newCountingSlot() *countingSlot {
	return &countingSlot{MemorySlot: storage.NewMemorySlot()}
}

func TestAddItemSameIDIncrementsQuantity(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(storage.NewMemorySlot())

	store.AddItem(ctx, "p1", "Ração", price("50.0"))
	got := store.AddItem(ctx, "p1", "Ração", price("50.0"))

	assert.Equal(t, 2, got.Quantity)
	require.Len(t, store.Items(), 1)

	totals := store.Totals()
	assert.Equal(t, 2, totals.ItemCount)
	assert.True(t, totals.Amount.Equal(price("100.00")), "amount %s", totals.Amount)
}

func TestAddItemKeepsFirstNameAndPrice(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)

	for i := 0; i < 5; i++ {
		store.AddItem(ctx, "p1", "Ração", price("50"))
	}
	got := store.AddItem(ctx, "p1", "Ração Premium", price("65"))

	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, "Ração", got.Name)
	assert.True(t, got.UnitPrice.Equal(price("50")))
}

func TestItemsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)

	store.AddItem(ctx, "c", "Coleira", price("25"))
	store.AddItem(ctx, "a", "Areia", price("30"))
	store.AddItem(ctx, "b", "Brinquedo", price("15"))
	store.AddItem(ctx, "a", "Areia", price("30"))

	var ids []string
	for _, it := range store.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestSetQuantity(t *testing.T) {
	tests := map[string]struct {
		quantity  int
		wantItems int
		wantQty   int
	}{
		"update in place": {quantity: 4, wantItems: 1, wantQty: 4},
		"zero removes":    {quantity: 0, wantItems: 0},
		"negative clamps": {quantity: -3, wantItems: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := cart.NewStore(nil)
			store.AddItem(ctx, "p2", "Areia", price("30"))

			store.SetQuantity(ctx, "p2", tt.quantity)

			items := store.Items()
			require.Len(t, items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
		})
	}
}

func TestSetQuantityZeroEquivalentToRemove(t *testing.T) {
	ctx := context.Background()

	seed := func() *cart.Store {
		s := cart.NewStore(nil)
		s.AddItem(ctx, "p1", "Ração", price("50"))
		s.AddItem(ctx, "p2", "Areia", price("30"))
		s.AddItem(ctx, "p2", "Areia", price("30"))
		s.AddItem(ctx, "p3", "Coleira", price("19.90"))
		return s
	}

	viaZero := seed()
	viaZero.SetQuantity(ctx, "p2", 0)

	viaRemove := seed()
	viaRemove.RemoveItem(ctx, "p2")

	if diff := cmp.Diff(viaRemove.Items(), viaZero.Items(), decimalComparer); diff != "" {
		t.Fatalf("contents differ (-remove +zero):\n%s", diff)
	}
}

func TestAbsentIDsAreNoOps(t *testing.T) {
	ctx := context.Background()
	slot := newCountingSlot()
	store := cart.NewStore(slot)
	store.AddItem(ctx, "p1", "Ração", price("50"))
	saves := slot.saves

	store.RemoveItem(ctx, "missing")
	store.SetQuantity(ctx, "missing", 3)

	assert.Equal(t, saves, slot.saves, "no-ops must not persist")
	require.Len(t, store.Items(), 1)
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	slot := newCountingSlot()
	store := cart.NewStore(slot)

	store.AddItem(ctx, "p1", "Ração", price("50"))
	store.AddItem(ctx, "p2", "Areia", price("30"))
	store.SetQuantity(ctx, "p1", 3)
	store.RemoveItem(ctx, "p2")
	store.Clear(ctx)

	assert.Equal(t, 5, slot.saves)

	raw, err := slot.Load(ctx, cart.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	slot := newCountingSlot()
	slot.saveErr = errors.New("quota exceeded")
	store := cart.NewStore(slot)

	got := store.AddItem(ctx, "p1", "Ração", price("50"))

	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 1, store.Totals().ItemCount)
	assert.ErrorIs(t, store.Persist(ctx), slot.saveErr)
}

func TestTotalsMatchRecomputation(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)

	store.AddItem(ctx, "p1", "Ração", price("49.90"))
	store.AddItem(ctx, "p1", "Ração", price("49.90"))
	store.AddItem(ctx, "p2", "Areia", price("0.10"))
	store.AddItem(ctx, "p3", "Petisco", price("12.35"))
	store.SetQuantity(ctx, "p3", 7)
	store.RemoveItem(ctx, "p2")
	store.AddItem(ctx, "p4", "Brinde", price("0"))

	want := decimal.Zero
	count := 0
	for _, it := range store.Items() {
		want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}

	first := store.Totals()
	second := store.Totals()

	assert.Equal(t, count, first.ItemCount)
	assert.True(t, first.Amount.Equal(want.Round(2)), "got %s want %s", first.Amount, want)
	assert.True(t, first.Amount.Equal(price("186.25")))
	assert.Equal(t, first.ItemCount, second.ItemCount)
	assert.True(t, first.Amount.Equal(second.Amount))
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot()

	original := cart.NewStore(slot, cart.WithKey("aumigos-cart:s1"))
	original.AddItem(ctx, "p1", "Ração", price("50.00"))
	original.AddItem(ctx, "p2", "Areia Higiênica", price("30.5"))
	original.AddItem(ctx, "p2", "Areia Higiênica", price("30.5"))
	original.AddItem(ctx, "p3", "Coleira", price("19.99"))
	require.NoError(t, original.Persist(ctx))

	fresh := cart.NewStore(slot, cart.WithKey("aumigos-cart:s1"))
	fresh.Restore(ctx)

	if diff := cmp.Diff(original.Items(), fresh.Items(), decimalComparer); diff != "" {
		t.Fatalf("restored cart differs (-persisted +restored):\n%s", diff)
	}
}

func TestRestoreReadsBrowserFormat(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot()
	require.NoError(t, slot.Save(ctx, cart.DefaultKey,
		[]byte(`[{"id":"racao-premium","name":"Ração Premium","price":89.9,"quantity":2}]`)))

	store := cart.NewStore(slot)
	store.Restore(ctx)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "racao-premium", items[0].ID)
	assert.True(t, items[0].UnitPrice.Equal(price("89.90")))
	assert.True(t, store.Totals().Amount.Equal(price("179.80")))
}

func TestRestoreFallsBackToEmpty(t *testing.T) {
	tests := map[string]struct {
		value   string
		missing bool
	}{
		"missing slot":      {missing: true},
		"malformed json":    {value: `{"id": oops`},
		"wrong shape":       {value: `{"id":"p1"}`},
		"non numeric price": {value: `[{"id":"p1","name":"x","price":"abc","quantity":1}]`},
		"empty value":       {value: ``},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := storage.NewMemorySlot()
			store := cart.NewStore(slot)
			store.AddItem(ctx, "stale", "Stale", price("1"))
			if !tt.missing {
				require.NoError(t, slot.Save(ctx, cart.DefaultKey, []byte(tt.value)))
			} else {
				require.NoError(t, slot.Delete(ctx, cart.DefaultKey))
			}

			store.Restore(ctx)

			assert.Zero(t, store.Len())
			assert.Zero(t, store.Totals().ItemCount)
		})
	}
}

func TestRestoreDropsInvalidEntriesAndMergesDuplicates(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot()
	require.NoError(t, slot.Save(ctx, cart.DefaultKey, []byte(`[
		{"id":"p1","name":"Ração","price":50,"quantity":1},
		{"id":"","name":"Sem id","price":10,"quantity":1},
		{"id":"p2","name":"Zero","price":10,"quantity":0},
		{"id":"p3","name":"Negativo","price":-5,"quantity":1},
		{"id":"p1","name":"Ração","price":50,"quantity":2}
	]`)))

	store := cart.NewStore(slot)
	store.Restore(ctx)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestRestoreWithoutSlot(t *testing.T) {
	store := cart.NewStore(nil)
	store.AddItem(context.Background(), "p1", "Ração", price("50"))

	store.Restore(context.Background())

	assert.Zero(t, store.Len())
	assert.NoError(t, store.Persist(context.Background()))
}

func TestClearEmptiesCart(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)
	store.AddItem(ctx, "p1", "Ração", price("50"))
	store.AddItem(ctx, "p2", "Areia", price("30"))

	store.Clear(ctx)

	assert.Zero(t, store.Len())
	totals := store.Totals()
	assert.Zero(t, totals.ItemCount)
	assert.True(t, totals.Amount.IsZero())
}

func TestCheckoutSnapshotsAndClears(t *testing.T) {
	ctx := context.Background()
	slot := newCountingSlot()
	store := cart.NewStore(slot)
	store.AddItem(ctx, "p1", "Ração", price("50"))
	store.AddItem(ctx, "p1", "Ração", price("50"))
	store.AddItem(ctx, "p2", "Areia", price("20"))
	saves := slot.saves

	items, totals := store.Checkout(ctx)

	require.Len(t, items, 2)
	assert.Equal(t, 3, totals.ItemCount)
	assert.True(t, totals.Amount.Equal(price("120.00")))
	assert.Zero(t, store.Len())
	assert.Equal(t, saves+1, slot.saves)

	raw, err := slot.Load(ctx, cart.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCheckoutEmptyCartDoesNotPersist(t *testing.T) {
	slot := newCountingSlot()
	store := cart.NewStore(slot)

	items, totals := store.Checkout(context.Background())

	assert.Empty(t, items)
	assert.Zero(t, totals.ItemCount)
	assert.True(t, totals.Amount.IsZero())
	assert.Zero(t, slot.saves)
}

func TestCheckoutWithConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)
	store.AddItem(ctx, "seed", "Ração", price("10"))

	const adds = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < adds; i++ {
			store.AddItem(ctx, "p1", "Petisco", price("2"))
		}
	}()

	checkedOut := 0
	for i := 0; i < 20; i++ {
		items, totals := store.Checkout(ctx)

		count := 0
		amount := decimal.Zero
		for _, it := range items {
			count += it.Quantity
			amount = amount.Add(it.Subtotal())
		}
		require.Equal(t, count, totals.ItemCount, "items and totals disagree")
		require.True(t, amount.Equal(totals.Amount), "amount %s vs %s", amount, totals.Amount)
		checkedOut += count
	}
	wg.Wait()

	checkedOut += store.Totals().ItemCount
	assert.Equal(t, adds+1, checkedOut, "every added unit is either checked out or still in the cart")
}

func TestLoadReportsReadErrors(t *testing.T) {
	ctx := context.Background()
	slot := newCountingSlot()
	require.NoError(t, slot.Save(ctx, cart.DefaultKey,
		[]byte(`[{"id":"p1","name":"Ração","price":50,"quantity":3}]`)))
	slot.loadErr = errors.New("connection refused")

	store := cart.NewStore(slot)
	err := store.Load(ctx)

	assert.ErrorIs(t, err, slot.loadErr)
	assert.Zero(t, store.Len())

	slot.loadErr = nil
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, 3, store.Totals().ItemCount)
}

func TestLoadTreatsEmptyAndMalformedAsEmpty(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot()
	store := cart.NewStore(slot)

	require.NoError(t, store.Load(ctx))

	require.NoError(t, slot.Save(ctx, cart.DefaultKey, []byte(`{oops`)))
	require.NoError(t, store.Load(ctx))
	assert.Zero(t, store.Len())
}
