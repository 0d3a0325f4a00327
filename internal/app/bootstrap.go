package app

import (
	"context"
	"log/slog"
	"time"

	"tradingbot_go/internal/infra"
	"tradingbot_go/internal/infra/alpaca"
	"tradingbot_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Storage
	Metrics *infra.Metrics
	Broker  *alpaca.Client
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, broker client)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping TradingBot...")

	// 1. Load Config (missing brokerage credentials abort here)
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize audit journal (DB)
	journal, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Journal = journal
	slog.Info("✅ Audit journal initialized", slog.String("path", cfg.Storage.Path))

	// 4. Metrics + Alpaca client
	b.Metrics = &infra.Metrics{}
	b.Broker = alpaca.NewClient(cfg)
	slog.Info("✅ Alpaca client ready", slog.String("base_url", cfg.Alpaca.BaseURL))

	return nil
}

// ProbeAccount verifies the Alpaca credentials with a read-only account
// fetch. Failure is logged, not fatal: the link may recover before the first
// alert arrives.
func (b *Bootstrap) ProbeAccount(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	acct, err := b.Broker.GetAccount(probeCtx)
	if err != nil {
		slog.Warn("Alpaca account probe failed", slog.Any("error", err))
		return
	}
	slog.Info("✅ Alpaca account verified",
		slog.String("account", acct.AccountNumber),
		slog.String("status", acct.Status),
		slog.String("buying_power", acct.BuyingPower))
}
