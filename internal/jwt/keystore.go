package jwt

import (
	"crypto/rsa"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// DefaultRetiredMax es el tope del pool de claves retiradas.
const DefaultRetiredMax = 8

// KeyRecord es un par RSA con su ventana de validez.
// Ningún campo cambia después de la creación; solo se mueve de pool (active -> retired).
type KeyRecord struct {
	ID        string
	PublicKey *rsa.PublicKey
	CreatedAt time.Time
	ExpiresAt time.Time

	priv *rsa.PrivateKey // nunca sale del paquete
	seq  uint64          // orden de inserción, define "la más vieja"
}

// PublicKeyEntry es la vista pública de un KeyRecord (lo que se publica en el JWKS).
type PublicKeyEntry struct {
	ID        string
	PublicKey *rsa.PublicKey
	ExpiresAt time.Time
}

// Stats es un snapshot del tamaño de los pools.
type Stats struct {
	Active  int
	Retired int
}

// Observer recibe eventos del ciclo de vida de las claves (métricas).
type Observer interface {
	KeyGenerated()
	KeyRetired()
	KeysEvicted(n int)
	PoolSizes(active, retired int)
	TokenIssued(expired bool)
}

type nopObserver struct{}

func (nopObserver) KeyGenerated()      {}
func (nopObserver) KeyRetired()        {}
func (nopObserver) KeysEvicted(int)    {}
func (nopObserver) PoolSizes(int, int) {}
func (nopObserver) TokenIssued(bool)   {}

// Options configura un KeyStore. Los valores cero toman los defaults.
type Options struct {
	Validity   time.Duration
	Bits       int
	RetiredMax int
	Clock      func() time.Time
	KeyGen     KeyGenFunc
	Observer   Observer
	Logger     *zap.Logger
}

// KeyStore mantiene los pools active y retired en memoria.
// Todas las operaciones toman el mismo mutex; la generación RSA corre fuera del lock.
type KeyStore struct {
	mu      sync.Mutex
	active  map[string]*KeyRecord
	retired map[string]*KeyRecord
	seq     uint64

	validity   time.Duration
	bits       int
	retiredMax int
	clock      func() time.Time
	keygen     KeyGenFunc
	obs        Observer
	log        *zap.Logger
}

func NewKeyStore(opts Options) *KeyStore {
	ks := &KeyStore{
		active:     make(map[string]*KeyRecord),
		retired:    make(map[string]*KeyRecord),
		validity:   opts.Validity,
		bits:       opts.Bits,
		retiredMax: opts.RetiredMax,
		clock:      opts.Clock,
		keygen:     opts.KeyGen,
		obs:        opts.Observer,
		log:        opts.Logger,
	}
	if ks.validity <= 0 {
		ks.validity = DefaultValidity
	}
	if ks.bits <= 0 {
		ks.bits = DefaultRSABits
	}
	if ks.retiredMax <= 0 {
		ks.retiredMax = DefaultRetiredMax
	}
	if ks.clock == nil {
		ks.clock = time.Now
	}
	if ks.keygen == nil {
		ks.keygen = GenerateRSA
	}
	if ks.obs == nil {
		ks.obs = nopObserver{}
	}
	if ks.log == nil {
		ks.log = logger.Named("keystore")
	}
	return ks
}

// Validity devuelve la ventana de validez configurada.
func (ks *KeyStore) Validity() time.Duration { return ks.validity }

// Generate crea un par nuevo en el pool activo y devuelve su kid.
func (ks *KeyStore) Generate() (string, error) {
	rec, err := ks.generateAt(ks.clock())
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (ks *KeyStore) generateAt(now time.Time) (*KeyRecord, error) {
	priv, err := ks.keygen(ks.bits)
	if err != nil {
		ks.log.Error("key generation failed", logger.Err(err))
		return nil, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	id := uuid.NewString()
	for ks.hasLocked(id) {
		id = uuid.NewString()
	}
	ks.seq++
	rec := &KeyRecord{
		ID:        id,
		PublicKey: &priv.PublicKey,
		CreatedAt: now,
		ExpiresAt: now.Add(ks.validity),
		priv:      priv,
		seq:       ks.seq,
	}
	ks.active[id] = rec

	ks.obs.KeyGenerated()
	ks.reportLocked()
	ks.log.Debug("signing key generated", logger.KID(id), logger.ExpiresAt(rec.ExpiresAt))
	return rec, nil
}

// EvictExpired descarta del pool activo las claves con expiresAt <= now.
// No pasan a retired: simplemente salen de circulación.
func (ks *KeyStore) EvictExpired(now time.Time) int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.evictLocked(now)
}

func (ks *KeyStore) evictLocked(now time.Time) int {
	n := 0
	for id, rec := range ks.active {
		if !rec.ExpiresAt.After(now) {
			delete(ks.active, id)
			n++
		}
	}
	if n > 0 {
		ks.obs.KeysEvicted(n)
		ks.reportLocked()
		ks.log.Debug("expired keys evicted", logger.Count(n))
	}
	return n
}

// RetireOldest saca del pool activo la clave más vieja (menor orden de inserción)
// y la devuelve. No la inserta en retired: eso lo decide el llamador (AddRetired).
func (ks *KeyStore) RetireOldest() (*KeyRecord, bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	rec := oldest(ks.active)
	if rec == nil {
		return nil, false
	}
	delete(ks.active, rec.ID)
	ks.reportLocked()
	return rec, true
}

// AddRetired inserta en el pool retirado un registro que ya salió del activo.
func (ks *KeyStore) AddRetired(rec *KeyRecord) {
	if rec == nil {
		return
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, ok := ks.active[rec.ID]; ok {
		delete(ks.active, rec.ID)
	}
	ks.retireLocked(rec)
}

// Retire mueve la clave id de active a retired. Es un paso sin vuelta atrás.
func (ks *KeyStore) Retire(id string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	rec, ok := ks.active[id]
	if !ok {
		ks.log.Warn("retire of unknown key ignored", logger.KID(id))
		return ErrUnknownKey
	}
	delete(ks.active, id)
	ks.retireLocked(rec)
	return nil
}

func (ks *KeyStore) retireLocked(rec *KeyRecord) {
	ks.retired[rec.ID] = rec
	for len(ks.retired) > ks.retiredMax {
		drop := oldest(ks.retired)
		delete(ks.retired, drop.ID)
		ks.log.Debug("retired pool full, oldest dropped", logger.KID(drop.ID))
	}
	ks.obs.KeyRetired()
	ks.reportLocked()
	ks.log.Info("signing key retired", logger.KID(rec.ID), logger.Pool("retired"))
}

// PopRetired devuelve la clave retirada más vieja sin sacarla del pool:
// los pedidos repetidos de tokens expirados reutilizan la misma clave.
func (ks *KeyStore) PopRetired() (*KeyRecord, bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	rec := oldest(ks.retired)
	return rec, rec != nil
}

// ActivePublicKeys evicta las claves vencidas y devuelve las activas restantes,
// ordenadas por inserción.
func (ks *KeyStore) ActivePublicKeys(now time.Time) []PublicKeyEntry {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.evictLocked(now)

	recs := sortedBySeq(ks.active)
	out := make([]PublicKeyEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, PublicKeyEntry{ID: r.ID, PublicKey: r.PublicKey, ExpiresAt: r.ExpiresAt})
	}
	return out
}

// JWKS arma el documento de verificación con las claves activas a now.
func (ks *KeyStore) JWKS(now time.Time) JWKS {
	return RenderJWKS(ks.ActivePublicKeys(now))
}

// PublicKey busca una clave pública en el pool activo.
// Las retiradas nunca se resuelven: su token no debe verificar.
func (ks *KeyStore) PublicKey(kid string) (*rsa.PublicKey, bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	rec, ok := ks.active[kid]
	if !ok {
		return nil, false
	}
	return rec.PublicKey, true
}

func (ks *KeyStore) Stats() Stats {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return Stats{Active: len(ks.active), Retired: len(ks.retired)}
}

func (ks *KeyStore) hasLocked(id string) bool {
	if _, ok := ks.active[id]; ok {
		return true
	}
	_, ok := ks.retired[id]
	return ok
}

func (ks *KeyStore) reportLocked() {
	ks.obs.PoolSizes(len(ks.active), len(ks.retired))
}

func oldest(pool map[string]*KeyRecord) *KeyRecord {
	var o *KeyRecord
	for _, r := range pool {
		if o == nil || r.seq < o.seq {
			o = r
		}
	}
	return o
}

func sortedBySeq(pool map[string]*KeyRecord) []*KeyRecord {
	out := make([]*KeyRecord, 0, len(pool))
	for _, r := range pool {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
