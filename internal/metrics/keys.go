package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del ciclo de vida de las claves. Van en un paquete aparte para que
// jwt y http no se importen entre sí.

var (
	KeysGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jwks_keys_generated_total",
		Help: "Pares RSA generados",
	})

	KeysRetired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jwks_keys_retired_total",
		Help: "Claves movidas al pool retirado",
	})

	KeysEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jwks_keys_evicted_total",
		Help: "Claves activas descartadas por vencimiento",
	})

	PoolSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jwks_keys_pool_size",
		Help: "Claves por pool (active|retired)",
	}, []string{"pool"})

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jwks_tokens_issued_total",
		Help: "Tokens emitidos por modo (valid|expired)",
	}, []string{"mode"})
)

// RegisterKeys registra las métricas de claves en el registry indicado (o el default si nil).
func RegisterKeys(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{KeysGenerated, KeysRetired, KeysEvicted, PoolSize, TokensIssued} {
		if err := register(reg, c); err != nil {
			return err
		}
	}
	return nil
}

// KeyObserver implementa jwt.Observer sobre las métricas globales.
type KeyObserver struct{}

func (KeyObserver) KeyGenerated() { KeysGenerated.Inc() }
func (KeyObserver) KeyRetired()   { KeysRetired.Inc() }

func (KeyObserver) KeysEvicted(n int) { KeysEvicted.Add(float64(n)) }

func (KeyObserver) PoolSizes(active, retired int) {
	PoolSize.WithLabelValues("active").Set(float64(active))
	PoolSize.WithLabelValues("retired").Set(float64(retired))
}

func (KeyObserver) TokenIssued(expired bool) {
	mode := "valid"
	if expired {
		mode = "expired"
	}
	TokensIssued.WithLabelValues(mode).Inc()
}

// register registra el collector ignorando duplicados.
func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
