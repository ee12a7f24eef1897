package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fastKeyGen genera claves de 1024 bits para que los tests no tarden.
func fastKeyGen(int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 1024)
}

// fakeClock es un reloj manual.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingObserver cuenta los eventos del store.
type countingObserver struct {
	mu                          sync.Mutex
	generated, retired, evicted int
	active, retiredSize         int
	issued                      map[bool]int
}

func (o *countingObserver) KeyGenerated() {
	o.mu.Lock()
	o.generated++
	o.mu.Unlock()
}
func (o *countingObserver) KeyRetired() {
	o.mu.Lock()
	o.retired++
	o.mu.Unlock()
}
func (o *countingObserver) KeysEvicted(n int) {
	o.mu.Lock()
	o.evicted += n
	o.mu.Unlock()
}
func (o *countingObserver) PoolSizes(a, r int) {
	o.mu.Lock()
	o.active, o.retiredSize = a, r
	o.mu.Unlock()
}
func (o *countingObserver) TokenIssued(expired bool) {
	o.mu.Lock()
	if o.issued == nil {
		o.issued = map[bool]int{}
	}
	o.issued[expired]++
	o.mu.Unlock()
}

func newTestStore(t *testing.T, clk *fakeClock) *KeyStore {
	t.Helper()
	return NewKeyStore(Options{
		Clock:  clk.Now,
		KeyGen: fastKeyGen,
		Logger: zap.NewNop(),
	})
}

func activeIDs(entries []PublicKeyEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestKeyStore_GenerateSetsExpiry(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	kid, err := ks.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, kid)

	keys := ks.ActivePublicKeys(clk.Now())
	require.Len(t, keys, 1)
	assert.Equal(t, kid, keys[0].ID)
	assert.Equal(t, clk.Now().Add(time.Hour), keys[0].ExpiresAt)
	assert.Equal(t, 65537, keys[0].PublicKey.E)
}

func TestKeyStore_GenerateFailureIsSurfaced(t *testing.T) {
	ks := NewKeyStore(Options{
		KeyGen: func(int) (*rsa.PrivateKey, error) { return nil, ErrKeyGeneration },
		Logger: zap.NewNop(),
	})

	_, err := ks.Generate()
	require.ErrorIs(t, err, ErrKeyGeneration)
	assert.Equal(t, Stats{}, ks.Stats())
}

func TestKeyStore_ActivePublicKeysOnlyUnexpired(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	first, err := ks.Generate()
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	second, err := ks.Generate()
	require.NoError(t, err)

	now := clk.Now()
	keys := ks.ActivePublicKeys(now)
	assert.Equal(t, []string{first, second}, activeIDs(keys))
	for _, k := range keys {
		assert.True(t, now.Before(k.ExpiresAt))
	}

	// expiresAt == now cuenta como vencida.
	clk.Advance(30 * time.Minute)
	keys = ks.ActivePublicKeys(clk.Now())
	assert.Equal(t, []string{second}, activeIDs(keys))

	clk.Advance(time.Hour)
	assert.Empty(t, ks.ActivePublicKeys(clk.Now()))
	assert.Equal(t, Stats{}, ks.Stats())
}

func TestKeyStore_EvictDoesNotRetire(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	_, err := ks.Generate()
	require.NoError(t, err)

	n := ks.EvictExpired(clk.Now().Add(2 * time.Hour))
	assert.Equal(t, 1, n)
	assert.Equal(t, Stats{Active: 0, Retired: 0}, ks.Stats())

	_, ok := ks.PopRetired()
	assert.False(t, ok)
}

func TestKeyStore_RetireExcludesFromJWKS(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	kid, err := ks.Generate()
	require.NoError(t, err)
	keep, err := ks.Generate()
	require.NoError(t, err)

	require.NoError(t, ks.Retire(kid))

	for _, at := range []time.Time{clk.Now(), clk.Now().Add(-time.Hour), clk.Now().Add(59 * time.Minute)} {
		assert.NotContains(t, activeIDs(ks.ActivePublicKeys(at)), kid)
	}
	assert.Contains(t, activeIDs(ks.ActivePublicKeys(clk.Now())), keep)

	_, ok := ks.PublicKey(kid)
	assert.False(t, ok)

	rec, ok := ks.PopRetired()
	require.True(t, ok)
	assert.Equal(t, kid, rec.ID)

	// Una segunda llamada no lo vuelve a mover.
	assert.ErrorIs(t, ks.Retire(kid), ErrUnknownKey)
	assert.Equal(t, Stats{Active: 1, Retired: 1}, ks.Stats())
}

func TestKeyStore_RetireUnknown(t *testing.T) {
	ks := newTestStore(t, newFakeClock())
	err := ks.Retire("nope")
	assert.True(t, errors.Is(err, ErrUnknownKey))
}

func TestKeyStore_RetireOldestAndAddRetired(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	_, ok := ks.RetireOldest()
	assert.False(t, ok)

	first, err := ks.Generate()
	require.NoError(t, err)
	second, err := ks.Generate()
	require.NoError(t, err)

	rec, ok := ks.RetireOldest()
	require.True(t, ok)
	assert.Equal(t, first, rec.ID)

	// Fuera de active pero todavía no en retired.
	assert.Equal(t, Stats{Active: 1, Retired: 0}, ks.Stats())
	assert.Equal(t, []string{second}, activeIDs(ks.ActivePublicKeys(clk.Now())))

	ks.AddRetired(rec)
	assert.Equal(t, Stats{Active: 1, Retired: 1}, ks.Stats())
	got, ok := ks.PopRetired()
	require.True(t, ok)
	assert.Equal(t, first, got.ID)
}

func TestKeyStore_PopRetiredIsStable(t *testing.T) {
	clk := newFakeClock()
	ks := newTestStore(t, clk)

	a, err := ks.Generate()
	require.NoError(t, err)
	b, err := ks.Generate()
	require.NoError(t, err)
	require.NoError(t, ks.Retire(b))
	require.NoError(t, ks.Retire(a))

	for i := 0; i < 5; i++ {
		rec, ok := ks.PopRetired()
		require.True(t, ok)
		assert.Equal(t, a, rec.ID, "oldest inserted wins")
	}
	assert.Equal(t, 2, ks.Stats().Retired)
}

func TestKeyStore_RetiredPoolIsBounded(t *testing.T) {
	clk := newFakeClock()
	ks := NewKeyStore(Options{Clock: clk.Now, KeyGen: fastKeyGen, RetiredMax: 2, Logger: zap.NewNop()})

	var ids []string
	for i := 0; i < 4; i++ {
		kid, err := ks.Generate()
		require.NoError(t, err)
		require.NoError(t, ks.Retire(kid))
		ids = append(ids, kid)
	}

	assert.Equal(t, 2, ks.Stats().Retired)
	rec, ok := ks.PopRetired()
	require.True(t, ok)
	assert.Equal(t, ids[2], rec.ID)
}

func TestKeyStore_ConcurrentGenerateUniqueIDs(t *testing.T) {
	ks := newTestStore(t, newFakeClock())

	const n = 32
	ids := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			kid, err := ks.Generate()
			ids[i] = kid
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate kid %s", id)
		seen[id] = struct{}{}
	}
	assert.Equal(t, n, ks.Stats().Active)
}

func TestKeyStore_ObserverEvents(t *testing.T) {
	clk := newFakeClock()
	obs := &countingObserver{}
	ks := NewKeyStore(Options{Clock: clk.Now, KeyGen: fastKeyGen, Observer: obs, Logger: zap.NewNop()})

	a, err := ks.Generate()
	require.NoError(t, err)
	_, err = ks.Generate()
	require.NoError(t, err)
	require.NoError(t, ks.Retire(a))
	ks.EvictExpired(clk.Now().Add(2 * time.Hour))

	assert.Equal(t, 2, obs.generated)
	assert.Equal(t, 1, obs.retired)
	assert.Equal(t, 1, obs.evicted)
	assert.Equal(t, 0, obs.active)
	assert.Equal(t, 1, obs.retiredSize)
}
