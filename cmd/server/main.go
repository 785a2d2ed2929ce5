package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"github.com/casbin/casbin/v2/persist"
	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"terrainhub/config"
	"terrainhub/controllers"
	"terrainhub/db"
	"terrainhub/internal/limiter"
	"terrainhub/logging"
	"terrainhub/middlewares"
	"terrainhub/routes"
	"terrainhub/services"
	"terrainhub/utils"
	"terrainhub/websocket"
)

func main() {
	cfg, err := config.LoadConfig(config.PathFromEnv())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var extra []slog.Handler
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			slog.Error("failed to init sentry", "error", err)
		} else {
			extra = append(extra, logging.NewSentryHandler(nil))
			defer sentry.Flush(2 * time.Second)
		}
	}
	logging.Setup(cfg.Server.LogLevel, extra...)

	utils.SetJWTSecret(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiry)*time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, authz, err := buildDeps(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise storage", "error", err)
		os.Exit(1)
	}
	deps.Authz = authz

	lim := buildLimiter(ctx, cfg)
	hub := websocket.NewHub()
	deps.Notifier = hub
	deps.Screener = buildScreener(ctx, cfg)
	geocoder := services.NewNominatimGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, time.Duration(cfg.Geocoder.TimeoutMs)*time.Millisecond)
	deps.Geocoder = geocoder

	courts := services.NewCourtService(deps)
	comments := services.NewCommentService(deps)
	reports := services.NewReportService(deps)
	profiles := services.NewProfileService(deps)

	handlers := routes.Handlers{
		Auth:        controllers.NewAuthHandler(buildPasswords(ctx, cfg), buildGoogle(ctx, cfg), profiles),
		Courts:      controllers.NewCourtHandler(courts, comments),
		Reports:     controllers.NewReportHandler(reports),
		Profiles:    controllers.NewProfileHandler(profiles),
		Maintenance: controllers.NewMaintenanceHandler(lim),
		Geocode:     controllers.NewGeocodeHandler(geocoder),
		Hub:         hub,
		Authz:       authz,
		Limiter:     lim,
	}

	router := setupRouter(cfg, handlers)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if cfg.Database.Driver == "mongo" {
		if err := db.Disconnect(shutdownCtx); err != nil {
			slog.Warn("mongo disconnect failed", "error", err)
		}
	}
}

func setupRouter(cfg *config.Config, h routes.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.Recovery(), middlewares.RequestLogger())

	if err := router.SetTrustedProxies([]string{"127.0.0.1", "localhost"}); err != nil {
		slog.Warn("failed to set trusted proxies", "error", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", middlewares.RequestIDHeader},
		AllowCredentials: true,
	}))

	routes.Register(router, h)
	return router
}

// buildDeps opens the configured store and the casbin enforcer persisted next to it.
func buildDeps(ctx context.Context, cfg *config.Config) (services.Deps, *services.Authorizer, error) {
	deps := services.Deps{Policy: cfg.Gamification}
	var adapter persist.Adapter

	switch cfg.Database.Driver {
	case "memory":
		store := db.NewMemoryStore()
		deps.Courts, deps.Comments, deps.Reports, deps.Users = store, store, store, store
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		database, err := db.Connect(connectCtx, cfg.Database.URI)
		if err != nil {
			return services.Deps{}, nil, err
		}
		store := db.NewMongoStore(database)
		if err := store.EnsureIndexes(connectCtx); err != nil {
			return services.Deps{}, nil, err
		}
		deps.Courts, deps.Comments, deps.Reports, deps.Users = store, store, store, store

		a, err := mongodbadapter.NewAdapter(cfg.Database.URI)
		if err != nil {
			slog.Warn("casbin adapter unavailable, using in-memory policies", "error", err)
		} else {
			adapter = a
		}
	}

	authz, err := services.NewAuthorizer(adapter)
	if err != nil {
		return services.Deps{}, nil, err
	}
	return deps, authz, nil
}

func buildLimiter(ctx context.Context, cfg *config.Config) limiter.Limiter {
	if !cfg.RateLimit.Enabled || cfg.Redis.Addr == "" {
		slog.Info("rate limiting disabled")
		return limiter.NewNoop()
	}
	rdb, err := db.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("redis unavailable, rate limiting disabled", "error", err)
		return limiter.NewNoop()
	}
	return limiter.NewRedis(rdb)
}

func buildScreener(ctx context.Context, cfg *config.Config) services.ContentScreener {
	var chain services.ScreenChain
	if cfg.Moderation.PatternScreening {
		chain = append(chain, services.NewPatternScreener(cfg.Moderation.BannedWords))
	}
	if cfg.Moderation.AIScreening && cfg.Gemini.ApiKey != "" {
		gen, err := services.NewGeminiClient(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model)
		if err != nil {
			slog.Warn("gemini unavailable, AI screening disabled", "error", err)
		} else {
			chain = append(chain, services.NewAIScreener(gen))
		}
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

func buildPasswords(ctx context.Context, cfg *config.Config) services.PasswordIdentity {
	if cfg.Cognito.AppClientId == "" {
		slog.Info("cognito not configured, email sign-in disabled")
		return nil
	}
	ci, err := services.NewCognitoIdentity(ctx, cfg.Cognito.Region, cfg.Cognito.AppClientId, cfg.Cognito.AppClientSecret)
	if err != nil {
		slog.Warn("cognito unavailable, email sign-in disabled", "error", err)
		return nil
	}
	return ci
}

func buildGoogle(ctx context.Context, cfg *config.Config) services.IDTokenVerifier {
	if cfg.Google.ClientID == "" {
		slog.Info("google client id not configured, google sign-in disabled")
		return nil
	}
	g, err := services.NewGoogleVerifier(ctx, cfg.Google.ClientID)
	if err != nil {
		slog.Warn("google sign-in unavailable", "error", err)
		return nil
	}
	return g
}
