package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tradingbot_go/internal/app"
	"tradingbot_go/internal/gateway"
	"tradingbot_go/internal/infra/alpaca"
)

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	// 3. Background credential probe (read-only, off the hotpath)
	go bootstrap.ProbeAccount(ctx)

	// 4. Webhook Gateway
	server := gateway.NewServer(cfg, bootstrap.Broker, bootstrap.Journal, bootstrap.Metrics)
	if err := server.Start(ctx); err != nil {
		slog.Error("❌ Failed to start webhook server", slog.Any("error", err))
		os.Exit(1)
	}

	// 5. Trade-updates stream (operator visibility on fills)
	if cfg.Alpaca.StreamEnabled {
		streamWorker := alpaca.NewStreamWorker(cfg, bootstrap.Metrics)
		if err := streamWorker.Connect(ctx); err != nil {
			slog.Error("Failed to start trade-updates stream", slog.Any("error", err))
		}
		defer streamWorker.Disconnect()
		slog.InfoContext(ctx, "✅ Trade-updates stream started")
	}

	slog.InfoContext(ctx, "✨ TradingBot gateway fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
