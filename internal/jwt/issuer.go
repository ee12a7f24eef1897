package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// Claims placeholder que se firman cuando no hay configuración.
const (
	DefaultSubject = "1234567890"
	DefaultName    = "John Doe"
)

// ClaimsConfig define las claims fijas de cada token.
type ClaimsConfig struct {
	Issuer  string // "iss", se omite si está vacío
	Subject string // "sub"
	Name    string // "name"
}

// Issued es el resultado de una emisión.
type Issued struct {
	Token     string
	KID       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Expired   bool
	Reused    bool // true si se firmó con una clave ya retirada
}

// Issuer firma tokens RS256 eligiendo (o creando) la clave en el KeyStore.
type Issuer struct {
	Keys   *KeyStore
	Claims ClaimsConfig
}

func NewIssuer(ks *KeyStore, claims ClaimsConfig) *Issuer {
	if claims.Subject == "" {
		claims.Subject = DefaultSubject
	}
	if claims.Name == "" {
		claims.Name = DefaultName
	}
	return &Issuer{Keys: ks, Claims: claims}
}

// Issue emite un token. Con expired=true el exp queda en el pasado (now - validez)
// y se firma con una clave retirada; si no hay ninguna se genera una y se retira
// apenas firmado, así nunca aparece en el JWKS.
func (i *Issuer) Issue(ctx context.Context, expired bool, now time.Time) (*Issued, error) {
	log := logger.From(ctx).With(logger.Component("issuer"), logger.Expired(expired))

	var (
		rec    *KeyRecord
		reused bool
	)
	if expired {
		rec, reused = i.Keys.PopRetired()
	}
	if !reused {
		i.Keys.EvictExpired(now)
		fresh, err := i.Keys.generateAt(now)
		if err != nil {
			return nil, err
		}
		rec = fresh
	}

	validity := i.Keys.Validity()
	exp := now.Add(validity)
	if expired {
		exp = now.Add(-validity)
	}

	signed, err := i.sign(rec, now, exp)
	if err != nil {
		log.Error("token signing failed", logger.KID(rec.ID), logger.Err(err))
		return nil, err
	}

	if expired && !reused {
		// Retiro interno: un kid desconocido solo se loguea.
		if err := i.Keys.Retire(rec.ID); err != nil && !errors.Is(err, ErrUnknownKey) {
			log.Warn("retire after expired issuance failed", logger.KID(rec.ID), logger.Err(err))
		}
	}

	i.Keys.obs.TokenIssued(expired)
	log.Debug("token issued", logger.KID(rec.ID), logger.Bool("reused", reused), logger.ExpiresAt(exp))

	return &Issued{
		Token:     signed,
		KID:       rec.ID,
		IssuedAt:  now,
		ExpiresAt: exp,
		Expired:   expired,
		Reused:    reused,
	}, nil
}

func (i *Issuer) sign(rec *KeyRecord, iat, exp time.Time) (string, error) {
	if rec == nil || rec.priv == nil {
		return "", fmt.Errorf("%w: missing private key", ErrSigning)
	}
	claims := jwtv5.MapClaims{
		"sub":  i.Claims.Subject,
		"name": i.Claims.Name,
		"iat":  iat.Unix(),
		"exp":  exp.Unix(),
	}
	if i.Claims.Issuer != "" {
		claims["iss"] = i.Claims.Issuer
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = rec.ID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(rec.priv)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}
