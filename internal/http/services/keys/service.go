// Package keys contiene la lógica de aplicación sobre el KeyStore y el Issuer.
package keys

import (
	"context"
	"fmt"
	"time"

	jwtx "github.com/dropDatabas3/hellojohn-jwks/internal/jwt"
	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// Service define las operaciones expuestas por HTTP.
type Service interface {
	IssueToken(ctx context.Context, expired bool) (*jwtx.Issued, error)
	GetJWKS(ctx context.Context) ([]byte, error)
	RetireOldest(ctx context.Context) (*jwtx.KeyRecord, error)
	Status(ctx context.Context) jwtx.Stats
}

type service struct {
	store  *jwtx.KeyStore
	issuer *jwtx.Issuer
	now    func() time.Time
}

// NewService crea el servicio. now nil usa time.Now.
func NewService(store *jwtx.KeyStore, issuer *jwtx.Issuer, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, issuer: issuer, now: now}
}

const component = "keys"

func (s *service) IssueToken(ctx context.Context, expired bool) (*jwtx.Issued, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("IssueToken"),
	)

	out, err := s.issuer.Issue(ctx, expired, s.now())
	if err != nil {
		log.Error("issue failed", logger.Expired(expired), logger.Err(err))
		return nil, err
	}
	return out, nil
}

func (s *service) GetJWKS(ctx context.Context) ([]byte, error) {
	set := s.store.JWKS(s.now())
	b, err := set.JSON()
	if err != nil {
		logger.From(ctx).Error("jwks encode failed",
			logger.Layer("service"), logger.Op("GetJWKS"), logger.Err(err))
		return nil, err
	}
	return b, nil
}

// RetireOldest saca la clave activa más vieja y la pasa al pool retirado.
func (s *service) RetireOldest(ctx context.Context) (*jwtx.KeyRecord, error) {
	// Lo vencido no se retira, se descarta antes.
	s.store.EvictExpired(s.now())

	rec, ok := s.store.RetireOldest()
	if !ok {
		return nil, fmt.Errorf("retire oldest: %w", jwtx.ErrNoKeys)
	}
	s.store.AddRetired(rec)

	logger.From(ctx).Info("key retired by admin",
		logger.Layer("service"), logger.Op("RetireOldest"), logger.KID(rec.ID))
	return rec, nil
}

func (s *service) Status(_ context.Context) jwtx.Stats {
	return s.store.Stats()
}
