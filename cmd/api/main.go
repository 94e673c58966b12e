package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/clinica-salud/pacientes-api/api/routes"
	"github.com/clinica-salud/pacientes-api/internal/access"
	"github.com/clinica-salud/pacientes-api/internal/auth"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	"github.com/clinica-salud/pacientes-api/internal/users"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/metrics"
	"github.com/clinica-salud/pacientes-api/pkg/migrate"
	"github.com/clinica-salud/pacientes-api/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	if cfg.JWT.UsingDevSecret {
		logg.Warn(context.Background(), "CLINICA_JWT_SECRET not set, signing tokens with the development key")
	}

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis disabled, auth rate limiting is off")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := metrics.NewAuthMetrics(reg)

	usersService, err := users.NewService(users.ServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		UsersConfig:    cfg.Users,
		Logger:         logg,
		Metrics:        authMetrics,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:     usersService,
		JWTConfig: cfg.JWT,
		Metrics:   authMetrics,
	})
	if err != nil {
		return err
	}

	patientsService, err := patients.NewService(patients.ServiceParams{DB: dbClient, Logger: logg})
	if err != nil {
		return err
	}

	engine := access.NewEngine(cfg.Access.Policies)
	if err := routes.AccessTable().Validate(engine); err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reg,
			metrics.NewHTTPMetrics(reg),
			engine,
			usersService,
			authService,
			patientsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"policies": cfg.Access.Policies.Names(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
