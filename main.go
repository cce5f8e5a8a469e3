package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"margin-gateway/internal/api"
	"margin-gateway/internal/monitor"
	"margin-gateway/pkg/config"
	"margin-gateway/pkg/crypto"
	"margin-gateway/pkg/db"
	"margin-gateway/pkg/exchanges/bitmex"
	"margin-gateway/pkg/logger"
)

func main() {
	initDB := flag.Bool("init-db", false, "apply schema migrations and exit")
	rotateKeys := flag.Bool("rotate-keys", false, "reseal stored secrets with the newest master key and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting margin gateway", zap.String("port", cfg.Port), zap.String("db_path", cfg.DBPath))

	database, err := db.New(cfg.DBPath)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		zl.Fatal("apply migrations", zap.Error(err))
	}
	if *initDB {
		zl.Info("schema ready", zap.String("db_path", cfg.DBPath))
		return
	}

	keyring, err := loadKeyring(cfg, zl)
	if err != nil {
		zl.Fatal("load master keys", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *rotateKeys {
		n, err := resealAccounts(ctx, database, keyring, zl)
		if err != nil {
			zl.Fatal("rotate keys", zap.Error(err), zap.Int("resealed", n))
		}
		zl.Info("key rotation complete", zap.Int("resealed", n), zap.Int("version", keyring.CurrentVersion()))
		return
	}

	metrics := monitor.NewMetrics()
	venue := bitmex.NewClient(bitmex.Config{
		RESTURL: cfg.VenueRESTURL,
		WSURL:   cfg.VenueWSURL,
		Timeout: cfg.UpstreamTimeout,
	}, bitmex.NewNonces(database), zl.Named("venue"))

	server := api.NewServer(database, database, venue, keyring, metrics, zl.Named("api"), api.Options{
		BcryptCost:     cfg.BcryptCost,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		PriceActionTTL: cfg.PriceActionTTL,
	})
	go server.Trades.RunCleanup(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("api server", zap.Error(err))
		}
	}()
	zl.Info("api listening", zap.String("addr", httpServer.Addr))

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown", zap.Error(err))
	}
}

// loadKeyring builds the sealing keyring. Without configured keys an
// ephemeral key is generated, so sealed secrets do not survive a restart.
func loadKeyring(cfg *config.Config, zl *zap.Logger) (*crypto.Keyring, error) {
	keys := cfg.MasterKeys
	if len(keys) == 0 {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		zl.Warn("MASTER_ENCRYPTION_KEY not set, using an ephemeral key; stored secrets will be unreadable after restart")
		keys = map[int]string{1: key}
	}
	return crypto.NewKeyring(keys)
}
