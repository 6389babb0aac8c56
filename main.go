// Command gotrain serves the model training API: browsable datasets,
// declarative network architectures, and training sessions that run on
// a bounded worker pool and are observed by polling.
//
// Configuration comes from the environment (see the config package).
// When DATABASE_URL is set, session and model state is written through
// to PostgreSQL and stored models are restored on startup.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/api"
	"github.com/samuelfneumann/gotrain/config"
	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/modelstore"
	"github.com/samuelfneumann/gotrain/session"
	"github.com/samuelfneumann/gotrain/store"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("gotrain exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg := config.FromEnv(logger)
	registry := dataset.DefaultRegistry()

	var (
		st store.Store
		pg *store.Postgres
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		var err error
		pg, err = store.NewPostgres(ctx, cfg.DatabaseURL, logger)
		cancel()
		if err != nil {
			return err
		}
		defer pg.Close()
		st = pg

		// Sessions left non-terminal by a previous process cannot be
		// resumed, so mark them failed before serving new requests.
		ctx, cancel = context.WithTimeout(context.Background(), startupTimeout)
		swept, err := pg.MarkInterrupted(ctx)
		cancel()
		if err != nil {
			logger.Warn("interrupted session sweep failed", zap.Error(err))
		} else if swept > 0 {
			logger.Info("marked interrupted sessions failed",
				zap.Int64("sessions", swept))
		}
	}

	var persist modelstore.PersistFunc
	if st != nil {
		persist = func(mc modelstore.Config) error {
			ctx, cancel := context.WithTimeout(context.Background(),
				startupTimeout)
			defer cancel()
			return st.SaveModelConfig(ctx, mc)
		}
	}
	models := modelstore.New(registry, persist, logger)

	if pg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		configs, err := pg.LoadModelConfigs(ctx)
		cancel()
		if err != nil {
			logger.Warn("model restore failed", zap.Error(err))
		} else if restored := models.Restore(configs); restored > 0 {
			logger.Info("restored stored models", zap.Int("models", restored))
		}
	}

	manager, err := session.NewManager(session.ManagerConfig{
		Workers:   cfg.Workers,
		Retention: cfg.Retention,
		Datasets:  registry,
		Store:     st,
	}, logger)
	if err != nil {
		return err
	}

	srv := api.New(api.Config{
		Datasets:       registry,
		Models:         models,
		Manager:        manager,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("gotrain listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.Int("workers", cfg.Workers),
		zap.Int("retention", cfg.Retention),
		zap.Bool("persistence", st != nil))
	if err := httpSrv.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}

	closeCtx, cancel := context.WithTimeout(context.Background(),
		shutdownTimeout)
	defer cancel()
	if err := manager.Close(closeCtx); err != nil {
		logger.Warn("session manager shutdown", zap.Error(err))
	}
	logger.Info("gotrain stopped")
	return nil
}
