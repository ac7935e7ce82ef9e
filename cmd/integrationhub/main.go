package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/sabgaby/integration-hub/internal/adapter/cache"
	"github.com/sabgaby/integration-hub/internal/auth"
	"github.com/sabgaby/integration-hub/internal/config"
	googleint "github.com/sabgaby/integration-hub/internal/google"
	httptransport "github.com/sabgaby/integration-hub/internal/http"
	"github.com/sabgaby/integration-hub/internal/http/handler"
	"github.com/sabgaby/integration-hub/internal/http/middleware"
	"github.com/sabgaby/integration-hub/internal/repository"
	"github.com/sabgaby/integration-hub/internal/server"
	"github.com/sabgaby/integration-hub/internal/service/calendar"
	"github.com/sabgaby/integration-hub/internal/service/drive"
	"github.com/sabgaby/integration-hub/internal/service/links"
	"github.com/sabgaby/integration-hub/internal/service/oauth"
	"github.com/sabgaby/integration-hub/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newRedisClient,
			newStateStore,
			newCredentialStore,
			newSharedDriveStore,
			newLinkStore,
			newRateLimiter,
			newSessionVerifier,
			newSessionMiddleware,
			googleint.NewResolver,
			googleint.NewInvoker,
			newSessionBuilder,
			newExchanger,
			drive.NewService,
			calendar.NewService,
			newDriveLister,
			newPickerTokens,
			oauth.NewService,
			newLinksService,
			handler.NewGoogleHandler,
			handler.NewLinksHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, useCalendar, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newStateStore(client redis.UniversalClient) repository.StateStore {
	return cacheadapter.NewRedisStateStore(client)
}

func newCredentialStore(pool *pgxpool.Pool, cfg config.Config, logger *zap.Logger) repository.CredentialStore {
	return repository.NewPostgresCredentialRepo(pool, cfg.GoogleEnabled, logger)
}

func newSharedDriveStore(pool *pgxpool.Pool) repository.SharedDriveStore {
	return repository.NewPostgresSharedDriveRepo(pool)
}

func newLinkStore(pool *pgxpool.Pool) repository.LinkStore {
	return repository.NewPostgresLinkRepo(pool)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newSessionVerifier(cfg config.Config) *auth.Verifier {
	return auth.NewVerifier(cfg.SessionSecret, cfg.SessionTTL)
}

func newSessionMiddleware(verifier *auth.Verifier) *middleware.Session {
	return &middleware.Session{Verifier: verifier}
}

func newSessionBuilder(resolver *googleint.Resolver, creds repository.CredentialStore, logger *zap.Logger) *googleint.SessionBuilder {
	return googleint.NewSessionBuilder(resolver, creds, logger)
}

func newExchanger() oauth.Exchanger {
	return oauth.NewProviderExchanger(nil)
}

func newDriveLister(svc *drive.Service) oauth.DriveLister {
	return svc
}

func newPickerTokens(svc *drive.Service) handler.AccessTokenProvider {
	return svc
}

func newLinksService(driveSvc *drive.Service, store repository.LinkStore, node *snowflake.Node, logger *zap.Logger) *links.Service {
	return links.NewService(driveSvc, store, node, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}

func useCalendar(*calendar.Service) {}
