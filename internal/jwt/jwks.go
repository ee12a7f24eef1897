package jwt

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
)

// JWK es una clave pública RSA en formato RFC 7517.
// n y e van en base64url sin padding sobre los bytes big-endian (RFC 7518 §6.3.1).
type JWK struct {
	KID string `json:"kid"`
	Kty string `json:"kty"` // "RSA"
	Use string `json:"use"` // "sig"
	Alg string `json:"alg"` // "RS256"
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS es el documento publicado en /jwks.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewRSAJWK construye el JWK de una clave pública RSA.
func NewRSAJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		KID: kid,
		Kty: "RSA",
		Use: "sig",
		Alg: SigningAlg,
		N:   EncodeBase64URL(pub.N.Bytes()),
		E:   EncodeBase64URL(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// RenderJWKS arma el JWKS respetando el orden recibido.
// Sin claves devuelve {"keys":[]} y no null.
func RenderJWKS(entries []PublicKeyEntry) JWKS {
	set := JWKS{Keys: make([]JWK, 0, len(entries))}
	for _, e := range entries {
		if e.PublicKey == nil {
			continue
		}
		set.Keys = append(set.Keys, NewRSAJWK(e.ID, e.PublicKey))
	}
	return set
}

// JSON serializa el documento.
func (s JWKS) JSON() ([]byte, error) {
	if s.Keys == nil {
		s.Keys = []JWK{}
	}
	return json.Marshal(s)
}

// ParseJWKS decodifica un documento JWKS (lo usa el verificador del CLI).
func ParseJWKS(b []byte) (*JWKS, error) {
	var s JWKS
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return &s, nil
}

// PublicKey resuelve el kid dentro del documento. Ignora claves que no sean RSA.
func (s *JWKS) PublicKey(kid string) (*rsa.PublicKey, bool) {
	for _, k := range s.Keys {
		if k.KID != kid || k.Kty != "RSA" {
			continue
		}
		pub, err := k.RSAPublicKey()
		if err != nil {
			return nil, false
		}
		return pub, true
	}
	return nil, false
}

// RSAPublicKey decodifica n/e.
func (k JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	nb, err := DecodeBase64URL(k.N)
	if err != nil {
		return nil, fmt.Errorf("jwk %s: n: %w", k.KID, err)
	}
	eb, err := DecodeBase64URL(k.E)
	if err != nil {
		return nil, fmt.Errorf("jwk %s: e: %w", k.KID, err)
	}
	e := new(big.Int).SetBytes(eb)
	if len(nb) == 0 || !e.IsInt64() || e.Int64() <= 1 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("jwk %s: invalid rsa parameters", k.KID)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(e.Int64())}, nil
}
