package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellojohn-jwks/internal/config"
	ctrl "github.com/dropDatabas3/hellojohn-jwks/internal/http/controllers"
	"github.com/dropDatabas3/hellojohn-jwks/internal/http/router"
	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
	jwtx "github.com/dropDatabas3/hellojohn-jwks/internal/jwt"
	"github.com/dropDatabas3/hellojohn-jwks/internal/metrics"
	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-jwks/internal/rate"
)

// Deps son las dependencias construidas por Build. Se exponen para tests y para el main.
type Deps struct {
	Store   *jwtx.KeyStore
	Issuer  *jwtx.Issuer
	Service svc.Service
	Limiter rate.Limiter
}

// BuildOptions permite inyectar registry de métricas (tests usan uno propio).
type BuildOptions struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
}

// Build arma store -> issuer -> service -> controllers -> router a partir de la config.
// El cleanup cierra lo que haya abierto (cliente Redis).
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (http.Handler, *Deps, func() error, error) {
	log := logger.Named("wiring")
	cleanup := func() error { return nil }

	var obs jwtx.Observer
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		h, err := metrics.Handler(opts.Registry, opts.Gatherer)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("metrics: %w", err)
		}
		metricsHandler = h
		obs = metrics.KeyObserver{}
	}

	store := jwtx.NewKeyStore(jwtx.Options{
		Validity:   cfg.Keys.Validity,
		Bits:       cfg.Keys.RSABits,
		RetiredMax: cfg.Keys.RetiredMax,
		Observer:   obs,
		Logger:     logger.Named("keystore"),
	})
	issuer := jwtx.NewIssuer(store, jwtx.ClaimsConfig{
		Issuer:  cfg.Token.Issuer,
		Subject: cfg.Token.Subject,
		Name:    cfg.Token.Name,
	})
	service := svc.NewService(store, issuer, nil)

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Backend {
		case "redis":
			client, err := rate.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return nil, nil, nil, err
			}
			cleanup = closeRedis(client)
			limiter = rate.NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Rate.Limit, cfg.Rate.Window)
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.Limit, cfg.Rate.Window)
		}
		log.Info("rate limit enabled",
			logger.String("backend", cfg.Rate.Backend),
			logger.Int("limit", cfg.Rate.Limit),
			logger.String("window", cfg.Rate.Window.String()),
		)
	}

	if cfg.Admin.APIKey == "" {
		log.Info("admin routes disabled (ADMIN_API_KEY empty)")
	}

	h := router.New(router.Deps{
		Controllers: ctrl.NewControllers(service, cfg.App.Version),
		RateLimiter: limiter,
		AdminAPIKey: cfg.Admin.APIKey,
		Metrics:     metricsHandler,
	})

	return h, &Deps{Store: store, Issuer: issuer, Service: service, Limiter: limiter}, cleanup, nil
}

func closeRedis(c *rdb.Client) func() error {
	return func() error { return c.Close() }
}
