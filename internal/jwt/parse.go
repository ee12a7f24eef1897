package jwt

import (
	"crypto/rsa"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// KeyResolver resuelve una clave pública por kid (KeyStore o un JWKS descargado).
type KeyResolver interface {
	PublicKey(kid string) (*rsa.PublicKey, bool)
}

var (
	ErrKIDMissing  = errors.New("kid_missing")
	ErrKIDNotFound = errors.New("kid_not_found")
)

// Keyfunc devuelve un jwt.Keyfunc que elige la pubkey por el 'kid' del header.
func Keyfunc(r KeyResolver) jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKIDMissing
		}
		pub, ok := r.PublicKey(kid)
		if !ok {
			return nil, ErrKIDNotFound
		}
		return pub, nil
	}
}

// ParseRS256 valida firma RS256 y exp/iat contra el instante now.
// Devuelve las claims; en error se puede usar errors.Is con jwtv5.ErrTokenExpired, etc.
func ParseRS256(token string, r KeyResolver, now time.Time) (jwtv5.MapClaims, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{SigningAlg}),
		jwtv5.WithTimeFunc(func() time.Time { return now }),
		jwtv5.WithIssuedAt(),
	)
	tok, err := parser.Parse(token, Keyfunc(r))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, jwtv5.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UnverifiedHeader lee kid y exp sin validar la firma (diagnóstico del CLI).
func UnverifiedHeader(token string) (kid string, exp time.Time, err error) {
	claims := jwtv5.MapClaims{}
	tok, _, err := jwtv5.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return "", time.Time{}, err
	}
	kid, _ = tok.Header["kid"].(string)
	if e, err := claims.GetExpirationTime(); err == nil && e != nil {
		exp = e.Time
	}
	return kid, exp, nil
}
