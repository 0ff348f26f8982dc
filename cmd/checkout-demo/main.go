package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cartflow/internal/checkout"
	"github.com/angelmondragon/cartflow/internal/remote"
	"github.com/angelmondragon/cartflow/internal/sequencer"
	"github.com/angelmondragon/cartflow/internal/session"
	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/env"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/metrics"
	"github.com/angelmondragon/cartflow/pkg/types"
)

// checkout-demo drives one scripted buyer session against the remote
// cart service: concurrent adds, a coupon, fulfillment and an order.
func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-demo"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-demo",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.IsDev(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "demo run failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	sessionID := env.Get("CARTFLOW_SESSION_ID", uuid.NewString())
	ctx = logg.WithSessionID(ctx, sessionID)

	manager, err := session.NewManager(store, cfg.Session.Namespace, sessionID, logg)
	if err != nil {
		return err
	}

	if env.Bool("CARTFLOW_DEMO_RESET_SESSION") {
		if err := store.Delete(ctx, manager.Key()); err != nil {
			return fmt.Errorf("resetting session record: %w", err)
		}
		logg.Info(ctx, "cleared persisted session state")
	}

	client, err := remote.NewClient(cfg.Remote, logg)
	if err != nil {
		return err
	}

	seq, err := sequencer.New(sequencer.Params{
		Remote:  client,
		Session: manager,
		Logger:  logg,
		Metrics: metrics.NewSequencerMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	recovered, err := manager.Recover(ctx, client, env.Get("CARTFLOW_USER_ID", ""))
	if err != nil {
		return fmt.Errorf("recovering session: %w", err)
	}
	if recovered != nil {
		seq.Adopt(recovered)
		logg.Info(logg.WithCartID(ctx, recovered.ID), "recovered existing cart")
	}

	if err := seq.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, seq.Close())
	}()

	// Fire the mutations without waiting in between; the sequencer is
	// responsible for applying them in this exact order.
	tickets := make([]*sequencer.Ticket, 0, 3)
	for _, m := range []sequencer.Mutation{
		sequencer.SetItem{ProductID: "sku-espresso", Quantity: 2},
		sequencer.SetItem{ProductID: "sku-grinder", Quantity: 1},
		sequencer.ApplyCoupon{Code: "WELCOME10"},
	} {
		ticket, err := seq.Submit(ctx, m)
		if err != nil {
			return err
		}
		tickets = append(tickets, ticket)
	}
	for _, ticket := range tickets {
		if _, err := ticket.Wait(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "mutation rejected")
		}
	}

	snapshot := seq.Snapshot()
	if snapshot == nil {
		return fmt.Errorf("no cart after mutations")
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"cart_id":        snapshot.ID,
		"items":          len(snapshot.Items),
		"amount_payable": snapshot.AmountPayable.String(),
	}), "cart ready for checkout")

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Remote:  client,
		Session: manager,
		Cart:    seq,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	if _, err := checkoutSvc.UpdateAddress(ctx, types.AddressInput{Shipping: &types.Address{
		Line1:      "12 Roaster Way",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
	}}); err != nil {
		return fmt.Errorf("updating address: %w", err)
	}

	options, err := checkoutSvc.FulfillmentOptions(ctx)
	if err != nil {
		return fmt.Errorf("loading fulfillment options: %w", err)
	}
	if len(options.Delivery) > 0 {
		if _, err := checkoutSvc.SetFulfillmentPreference(ctx, types.FulfillmentPreference{
			OptionIDs: []string{options.Delivery[0].ID},
		}); err != nil {
			return fmt.Errorf("setting fulfillment: %w", err)
		}
	}

	order, err := checkoutSvc.CreateOrder(ctx, types.PaymentMethod{Kind: "card", Token: "tok_demo"})
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	status, err := checkoutSvc.PaymentStatus(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("checking payment status: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"status":   status.String(),
		"total":    order.Total.String(),
	}), "order created")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Session.Backend)) {
	case config.SessionBackendRedis:
		return session.NewRedisStore(ctx, cfg.Redis)
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil
	default:
		return session.NewSQLiteStore(cfg.Session.SQLite)
	}
}
