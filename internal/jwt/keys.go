package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// Parámetros fijos de las claves de firma.
const (
	// DefaultRSABits es el tamaño del módulo RSA (exponente público 65537, lo fija crypto/rsa).
	DefaultRSABits = 2048

	// DefaultValidity es la ventana de validez de una clave y de los tokens que firma.
	DefaultValidity = time.Hour

	// SigningAlg es el único algoritmo de firma soportado.
	SigningAlg = "RS256"
)

var (
	// ErrKeyGeneration indica que la primitiva criptográfica no pudo generar el par.
	ErrKeyGeneration = errors.New("key_generation_failed")

	// ErrSigning indica que no se pudo firmar el token (clave o claims inválidos).
	ErrSigning = errors.New("signing_failed")

	// ErrUnknownKey indica que el kid no está en el pool activo.
	ErrUnknownKey = errors.New("unknown_kid")

	// ErrNoKeys indica que el pool consultado está vacío.
	ErrNoKeys = errors.New("no_keys")
)

// KeyGenFunc genera una clave privada RSA del tamaño indicado.
type KeyGenFunc func(bits int) (*rsa.PrivateKey, error)

// GenerateRSA genera un par RSA usando crypto/rand.
func GenerateRSA(bits int) (*rsa.PrivateKey, error) {
	if bits <= 0 {
		bits = DefaultRSABits
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return priv, nil
}

// EncodeBase64URL codifica en base64url sin padding (RFC 7515 §2).
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL acepta base64url con o sin padding.
func DecodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
