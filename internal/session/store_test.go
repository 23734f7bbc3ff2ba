package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
)

func newMemoryStore(t *testing.T, backend *kv.MemoryBackend) *Store {
	t.Helper()
	s, err := New(context.Background(), backend, nil, nil)
	require.NoError(t, err)
	return s
}

func sampleCart() domain.Cart {
	return domain.Cart{Items: []domain.CartItem{
		{ProductID: 1, Name: "Vinho Tinto Reserva", Price: 89.90, Stock: 5, Quantity: 2},
	}}
}

func TestSessionID_GeneratedOnceAndStable(t *testing.T) {
	backend := kv.NewMemoryBackend(0)
	ctx := context.Background()

	first, err := New(ctx, backend, nil, nil)
	require.NoError(t, err)
	second, err := New(ctx, backend, nil, nil)
	require.NoError(t, err)

	assert.Len(t, first.SessionID(), 36)
	assert.Equal(t, first.SessionID(), second.SessionID())

	parsed, err := uuid.Parse(first.SessionID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestSessionID_EmptyPersistedValueRegenerates(t *testing.T) {
	backend := kv.NewMemoryBackend(0)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, SessionKey, []byte("")))

	s := newMemoryStore(t, backend)
	assert.Len(t, s.SessionID(), 36)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newMemoryStore(t, kv.NewMemoryBackend(0))
	ctx := context.Background()

	original := domain.Cart{Items: []domain.CartItem{
		{ProductID: 1, Name: `Cachaça "Ouro" — 50%`, Price: 0, Stock: 3, Quantity: 3},
		{ProductID: 2, Name: "Água com gás", Price: 4.50, Stock: 100, Quantity: 1},
	}}
	outcome := s.Save(ctx, EntityCart, original)
	require.Equal(t, StatusPersisted, outcome.Status)

	var loaded domain.Cart
	require.True(t, s.Load(ctx, EntityCart, &loaded))
	assert.Equal(t, original, loaded)
}

func TestSaveLoad_EmptyCartRoundTrip(t *testing.T) {
	s := newMemoryStore(t, kv.NewMemoryBackend(0))
	ctx := context.Background()

	outcome := s.Save(ctx, EntityCart, domain.Cart{})
	require.True(t, outcome.Persisted())

	var loaded domain.Cart
	require.True(t, s.Load(ctx, EntityCart, &loaded))
	assert.Empty(t, loaded.Items)
}

func TestLoad_MissingKeyLeavesDefault(t *testing.T) {
	s := newMemoryStore(t, kv.NewMemoryBackend(0))

	loaded := domain.Cart{Items: []domain.CartItem{{ProductID: 9}}}
	assert.False(t, s.Load(context.Background(), EntityCart, &loaded))
	// The caller's default is untouched.
	assert.Len(t, loaded.Items, 1)
}

func TestLoad_CorruptedPayloadSelfHeals(t *testing.T) {
	backend := kv.NewMemoryBackend(0)
	s := newMemoryStore(t, backend)
	ctx := context.Background()

	key := EntityCart + "-" + s.SessionID()
	require.NoError(t, backend.Set(ctx, key, []byte("{not json")))

	var loaded domain.Cart
	assert.False(t, s.Load(ctx, EntityCart, &loaded))
	assert.Empty(t, loaded.Items)

	// The corrupted key is gone.
	_, err := backend.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestIsolation_BetweenSessions(t *testing.T) {
	backend := kv.NewMemoryBackend(0)
	ctx := context.Background()

	s1, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)
	s2, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)

	require.True(t, s1.Save(ctx, EntityCart, sampleCart()).Persisted())

	var loaded domain.Cart
	assert.False(t, s2.Load(ctx, EntityCart, &loaded), "s1's cart must not be visible to s2")

	s1.ClearSession(ctx)
	require.True(t, s2.Save(ctx, EntityCart, sampleCart()).Persisted())
	assert.True(t, s2.Load(ctx, EntityCart, &loaded))
}

func TestClear_RemovesOnlyThatEntity(t *testing.T) {
	s := newMemoryStore(t, kv.NewMemoryBackend(0))
	ctx := context.Background()

	require.True(t, s.Save(ctx, EntityCart, sampleCart()).Persisted())
	require.True(t, s.Save(ctx, EntityShippingQuote, domain.ShippingQuote{CEP: "52011000", Valid: true}).Persisted())

	s.Clear(ctx, EntityShippingQuote)

	var quote domain.ShippingQuote
	assert.False(t, s.Load(ctx, EntityShippingQuote, &quote))
	var cart domain.Cart
	assert.True(t, s.Load(ctx, EntityCart, &cart))
}

func TestClearSession_KeepsSessionIDAndOtherSessions(t *testing.T) {
	backend := kv.NewMemoryBackend(0)
	ctx := context.Background()

	s1 := newMemoryStore(t, backend)
	s2, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)

	require.True(t, s1.Save(ctx, EntityCart, sampleCart()).Persisted())
	require.True(t, s1.Save(ctx, EntityShippingQuote, domain.ShippingQuote{Valid: true}).Persisted())
	require.True(t, s2.Save(ctx, EntityCart, sampleCart()).Persisted())

	s1.ClearSession(ctx)

	var cart domain.Cart
	assert.False(t, s1.Load(ctx, EntityCart, &cart))
	var quote domain.ShippingQuote
	assert.False(t, s1.Load(ctx, EntityShippingQuote, &quote))

	// Session id survives and other sessions are untouched.
	id, err := backend.Get(ctx, SessionKey)
	require.NoError(t, err)
	assert.Equal(t, s1.SessionID(), string(id))
	assert.True(t, s2.Load(ctx, EntityCart, &cart))
}

func TestSave_QuotaRecoveryEvictsOtherSessions(t *testing.T) {
	backend := kv.NewMemoryBackend(300)
	ctx := context.Background()

	// A stale cart from a previous session hogs the budget.
	staleKey := EntityCart + "-" + uuid.NewString()
	require.NoError(t, backend.Set(ctx, staleKey, make([]byte, 180)))

	s, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)

	outcome := s.Save(ctx, EntityCart, sampleCart())
	require.Equal(t, StatusRecovered, outcome.Status)
	assert.Equal(t, 1, outcome.Evicted)

	// The stale entry is gone and our cart is readable.
	_, err = backend.Get(ctx, staleKey)
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	var loaded domain.Cart
	assert.True(t, s.Load(ctx, EntityCart, &loaded))
}

func TestSave_DegradedWhenRecoveryCannotHelp(t *testing.T) {
	backend := kv.NewMemoryBackend(40)
	ctx := context.Background()

	s, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)

	outcome := s.Save(ctx, EntityCart, sampleCart())
	assert.Equal(t, StatusDegraded, outcome.Status)
	assert.False(t, outcome.Persisted())
	assert.ErrorIs(t, outcome.Err, kv.ErrQuotaExceeded)
}

func TestSave_NeverEvictsCurrentSession(t *testing.T) {
	backend := kv.NewMemoryBackend(300)
	ctx := context.Background()

	s, err := NewForSession(ctx, backend, uuid.NewString(), nil, nil)
	require.NoError(t, err)

	// Our own quote fills most of the budget; saving the cart cannot
	// recover by evicting it.
	require.NoError(t, backend.Set(ctx, EntityShippingQuote+"-"+s.SessionID(), make([]byte, 200)))

	outcome := s.Save(ctx, EntityCart, sampleCart())
	assert.Equal(t, StatusDegraded, outcome.Status)

	_, err = backend.Get(ctx, EntityShippingQuote+"-"+s.SessionID())
	assert.NoError(t, err, "current session data must never be evicted")
}
