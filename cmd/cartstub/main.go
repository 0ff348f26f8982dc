package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartflow/internal/stub"
	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartstub"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartstub",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.IsDev(),
	})

	store := stub.NewStore(stub.Options{
		CartTTL: cfg.Stub.CartTTL,
		Coupons: map[string]decimal.Decimal{
			"WELCOME10": decimal.NewFromInt(10),
			"SAVE5":     decimal.NewFromInt(5),
		},
		UnserviceablePostcodes: map[string]bool{"00000": true},
	})

	addr := ":" + cfg.Stub.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	if cfg.App.IsProd() {
		logg.Warn(ctx, "stub serves fabricated carts and is not a production backend")
	}
	logg.Info(ctx, "starting cart service stub")

	server := &http.Server{
		Addr:    addr,
		Handler: stub.NewRouter(store),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "stub shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "cart service stub stopped unexpectedly", err)
		os.Exit(1)
	}
}
