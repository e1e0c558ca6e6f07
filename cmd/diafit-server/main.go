package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diafit/diafit/internal/config"
	"github.com/diafit/diafit/internal/domain/diet"
	"github.com/diafit/diafit/internal/domain/food"
	"github.com/diafit/diafit/internal/domain/note"
	"github.com/diafit/diafit/internal/domain/security"
	"github.com/diafit/diafit/internal/platform/auth"
	"github.com/diafit/diafit/internal/platform/db"
	"github.com/diafit/diafit/internal/platform/metrics"
	"github.com/diafit/diafit/internal/platform/middleware"
	"github.com/diafit/diafit/internal/platform/vault"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "diafit-server",
		Short:         "DiaFit API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(foodCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

// app holds what the HTTP layer is built from. pool is nil when no database
// is attached, which only happens in tests.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	vault    *vault.Vault
	metrics  *metrics.Metrics
	pool     *pgxpool.Pool
	dietRepo diet.Repository
	noteRepo note.Repository
	inTx     note.TxFunc
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise vault")
	}
	if err := v.SelfTest(); err != nil {
		logger.Fatal().Err(err).Msg("vault self-test failed")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e, err := newEcho(&app{
		cfg:      cfg,
		logger:   logger,
		vault:    v,
		metrics:  metrics.New(),
		pool:     pool,
		dietRepo: diet.NewRepoPG(pool),
		noteRepo: note.NewRepoPG(pool),
		inTx:     txFunc(pool),
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func txFunc(pool *pgxpool.Pool) note.TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.InTx(ctx, pool, fn)
	}
}

// tokenVerifier picks the bearer-token check for cfg and names it for the
// security status page. A shared signing key wins over JWKS; the development
// identity is used only when neither is configured.
func tokenVerifier(cfg *config.Config) (echo.MiddlewareFunc, string, error) {
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
	}
	switch {
	case cfg.AuthSigningKey != "":
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
		return auth.JWTMiddleware(jwtCfg), "HS256", nil
	case cfg.AuthJWKSURL != "":
		return auth.JWTMiddleware(jwtCfg), "RS256 (JWKS)", nil
	case cfg.IsDev():
		return auth.DevAuthMiddleware(), "development", nil
	}
	return nil, "", fmt.Errorf("no token verifier configured for ENV=%q", cfg.Env)
}

// rateLimitConfig applies RATE_LIMIT_* over the defaults, keeping the
// default idle eviction.
func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

func newEcho(a *app) (*echo.Echo, error) {
	cfg := a.cfg

	verify, mode, err := tokenVerifier(cfg)
	if err != nil {
		return nil, err
	}
	if mode == "development" {
		a.logger.Warn().Msg("development auth active: every request runs as an admin")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", a.metrics.Handler())

	checks := []security.Check{
		{Name: "vault round trip", Run: func(context.Context) error { return a.vault.SelfTest() }},
		{Name: "token verification", Run: func(context.Context) error {
			if mode == "development" {
				return errors.New("development auth grants every caller admin")
			}
			return nil
		}},
	}
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(db.PoolChecker{Pool: a.pool}))
		checks = append(checks, security.Check{Name: "database", Run: a.pool.Ping})
	}

	limit := middleware.RateLimit(rateLimitConfig(cfg))

	public := e.Group("/api/v1", limit)
	api := e.Group("/api/v1", limit, verify)

	security.NewHandler(security.DefaultStatus(mode), checks...).RegisterRoutes(public, api)

	food.NewHandler(a.metrics).RegisterRoutes(api)

	dietSvc := diet.NewService(a.dietRepo, a.metrics)
	diet.NewHandler(dietSvc).RegisterRoutes(api)

	noteSvc := note.NewService(a.noteRepo, a.vault, a.metrics, a.inTx)
	note.NewHandler(noteSvc).RegisterRoutes(api)

	return e, nil
}
