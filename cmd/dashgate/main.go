package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rackforge/dashgate/pkg/api"
	"github.com/rackforge/dashgate/pkg/config"
	"github.com/rackforge/dashgate/pkg/dashboard"
	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/middleware"
	"github.com/rackforge/dashgate/pkg/observability"
	"github.com/rackforge/dashgate/pkg/session"
	"github.com/rackforge/dashgate/pkg/sso"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", cfg.Observability.Version).Info("starting dashgate")

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	mapper, err := buildMapper(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to load role mapping")
		os.Exit(1)
	}

	orchestrator, err := buildOrchestrator(cfg, mapper, logger)
	if err != nil {
		// Broken trust config means every login would fail. Refuse to start.
		logger.WithError(err).Error("SAML trust configuration is invalid")
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.Session.TTL, nil, metrics)

	var redisClient *redis.Client
	var limiter middleware.Limiter
	limitCfg := &middleware.RateLimitConfig{
		Limit:       cfg.RateLimit.Limit,
		Window:      cfg.RateLimit.Window,
		ExemptPaths: middleware.DefaultRateLimitConfig().ExemptPaths,
	}
	if cfg.RateLimit.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		limiter = middleware.NewRedisSlidingWindowLimiter(redisClient, limitCfg, logger, metrics)
		logger.WithField("addr", cfg.RateLimit.RedisAddr).Info("using redis rate limiter")
	} else {
		memLimiter := middleware.NewSlidingWindowLimiter(limitCfg, nil, metrics)
		limiter = memLimiter
		logger.Info("using in-memory rate limiter")
	}

	server := api.NewServer(api.ServerOptions{
		Config: api.Config{
			FrontendURL:    cfg.Server.FrontendURL,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			SessionTTL:     cfg.Session.TTL,
			SecureCookies:  cfg.IsProduction(),
			CookieDomain:   cfg.Session.CookieDomain,
		},
		Authenticator: orchestrator,
		Sessions:      sessions,
		Limiter:       limiter,
		Logger:        logger,
		Metrics:       metrics,
		Health:        observability.NewHealthChecker(redisClient, cfg.Observability.Version),
		Registry:      registry,
	})
	server.Register(dashboard.NewHandler(dashboard.NewService(logger, nil), logger))

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		sessions.StartSweep(groupCtx, cfg.Session.SweepInterval)
		return nil
	})
	if memLimiter, ok := limiter.(*middleware.SlidingWindowLimiter); ok {
		memLimiter.StartCleanup(groupCtx)
	}

	group.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	shutdownManager := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		if redisClient != nil {
			return redisClient.Close()
		}
		return nil
	})

	group.Go(func() error {
		return shutdownManager.WaitForShutdown()
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// buildMapper loads the role mapping file when configured, otherwise the
// built-in defaults.
func buildMapper(cfg *config.Config) (*identity.Mapper, error) {
	if cfg.SAML.RolemapPath == "" {
		return identity.NewMapper(identity.DefaultMappingConfig()), nil
	}

	mappingCfg, err := identity.LoadMappingConfig(cfg.SAML.RolemapPath)
	if err != nil {
		return nil, err
	}
	return identity.NewMapper(mappingCfg), nil
}

// buildOrchestrator reads the IdP metadata and optional SP key material
// from disk and constructs the SAML orchestrator.
func buildOrchestrator(cfg *config.Config, mapper *identity.Mapper, logger *observability.Logger) (*sso.Orchestrator, error) {
	metadataXML, err := os.ReadFile(cfg.SAML.IDPMetadataPath)
	if err != nil {
		return nil, err
	}

	trust := &sso.TrustConfig{
		EntityID:       cfg.SAML.EntityID,
		ACSURL:         cfg.SAML.ACSURL,
		AudienceURI:    cfg.SAML.AudienceURI,
		IDPMetadataXML: metadataXML,
		SignRequests:   cfg.SAML.SignRequests,
	}

	if cfg.SAML.SPCertPath != "" && cfg.SAML.SPKeyPath != "" {
		certPEM, err := os.ReadFile(cfg.SAML.SPCertPath)
		if err != nil {
			return nil, err
		}
		keyPEM, err := os.ReadFile(cfg.SAML.SPKeyPath)
		if err != nil {
			return nil, err
		}
		trust.SPCertificatePEM = string(certPEM)
		trust.SPPrivateKeyPEM = string(keyPEM)
	}

	return sso.NewOrchestrator(trust, mapper, logger)
}
