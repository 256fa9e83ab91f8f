package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"seva-backend/internal/config"
	"seva-backend/internal/database"
	"seva-backend/internal/logger"
	"seva-backend/internal/metrics"
	"seva-backend/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("database migrated")

	deps, err := server.NewDeps(cfg, db, log, metrics.New())
	if err != nil {
		return err
	}
	if cfg.SetupKey == "" {
		log.Warn("SUPER_ADMIN_SETUP_KEY not set, super admin provisioning disabled")
	}
	if cfg.PaymentTestMode {
		log.Warn("payment test mode enabled, gateway signatures are not enforced")
	}
	app := server.New(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		log.WithField("addr", addr).Info("listening")
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
