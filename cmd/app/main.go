package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper_go/internal/app"
	"paper_go/internal/engine"
	"paper_go/internal/event"
	"paper_go/internal/infra/feed"
	"paper_go/internal/service"
	"paper_go/internal/strategy"
	"paper_go/pkg/quant"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Pre-warm the quote event pool before any feed traffic.
	event.Warmup()

	// 5. Strategy (optional) and the read model fed by the engine.
	var strat strategy.Strategy
	if cfg.Strategy.Enabled {
		strat = strategy.NewSMACrossStrategy(
			cfg.Strategy.Symbol,
			cfg.Strategy.ShortPeriod,
			cfg.Strategy.LongPeriod,
			quant.QtyFromDecimal(cfg.Strategy.OrderQty),
		)
		slog.Info("✅ Strategy armed",
			slog.String("symbol", cfg.Strategy.Symbol),
			slog.Int("short", cfg.Strategy.ShortPeriod),
			slog.Int("long", cfg.Strategy.LongPeriod))
	}
	portfolio := service.NewPortfolio()

	// 6. Sequencer (The Hotpath Loop)
	seq := engine.NewSequencer(
		bootstrap.EngineConfig(),
		bootstrap.Account,
		bootstrap.Instruments,
		bootstrap.Restored,
		bootstrap.Storage,
		strat,
		portfolio,
	)
	// Re-run any journal rows a crash left behind before accepting new events.
	if err := bootstrap.ReplayJournal(seq); err != nil {
		slog.Error("❌ Journal replay failed", slog.Any("error", err))
		os.Exit(1)
	}
	go seq.Run(ctx)
	slog.InfoContext(ctx, "✅ Sequencer (Hotpath) started")

	// 7. Market data feed
	switch cfg.Feed.Mode {
	case "ws":
		worker := feed.NewWorker(cfg.Feed.WS.URL, cfg.Feed.WS.Symbols, seq.Inbox())
		if err := worker.Connect(ctx); err != nil {
			slog.Error("Failed to connect feed", slog.Any("error", err))
		}
		defer worker.Disconnect()
		slog.InfoContext(ctx, "✅ FeedWorker started", slog.Int("symbols", len(cfg.Feed.WS.Symbols)))
	case "sim":
		sim := feed.NewSimulator(
			bootstrap.Instruments.All(),
			seq.Inbox(),
			time.Duration(cfg.Feed.Sim.IntervalMS)*time.Millisecond,
			cfg.Feed.Sim.Seed,
		)
		if err := sim.Connect(ctx); err != nil {
			slog.Error("Failed to start sim feed", slog.Any("error", err))
		}
		defer sim.Disconnect()
		slog.InfoContext(ctx, "✅ Sim feed started")
	}

	slog.InfoContext(ctx, "✨ Paper trading engine fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")

	// Final snapshot plus journal prune in one transaction; a journal left
	// alongside a newer snapshot would be replayed on top of it next start.
	if err := bootstrap.Storage.Checkpoint(seq.Snapshot(), seq.NextSeq()-1); err != nil {
		slog.Error("Failed to checkpoint final state", slog.Any("error", err))
	}
}
