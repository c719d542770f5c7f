package app

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"paper_go/internal/domain"
	"paper_go/internal/engine"
	"paper_go/internal/event"
	"paper_go/internal/infra"
	"paper_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Storage     *storage.Store
	Instruments *domain.InstrumentTable
	Account     *domain.Account
	Restored    []*domain.Order // open orders recovered from the last session
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, DB, account).
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Paper Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Reference data
	b.Instruments = cfg.InstrumentTable()

	// 5. Restore the account from the last snapshot, or start fresh.
	snap, err := store.LoadSnapshot()
	if err != nil {
		return err
	}
	if snap != nil {
		acct, restored := domain.RestoreAccount(*snap, b.Instruments)
		b.Account = acct
		b.Restored = restored
		slog.Info("✅ Account restored",
			slog.Int64("cash_micros", snap.CashMicros),
			slog.Int("positions", len(snap.Positions)),
			slog.Int("open_orders", len(restored)))
	} else {
		b.Account = domain.NewAccount(cfg.InitialCashMicros(), b.Instruments)
		slog.Info("✅ Fresh account created", slog.String("initial_cash", cfg.Account.InitialCash.String()))
	}

	// Persisted engine settings survive config edits between sessions.
	if err := b.applyStoredSettings(); err != nil {
		return err
	}

	return nil
}

// ReplayJournal feeds any journal rows left by an unclean shutdown back
// through the sequencer before it starts running. The snapshot only captures
// clean exits; the journal carries everything since, and replaying it both
// rebuilds the crashed session's state and advances the sequence counter past
// the journal tail so newly admitted events never collide with stored rows.
// Must be called before the sequencer's Run loop starts.
func (b *Bootstrap) ReplayJournal(seq *engine.Sequencer) error {
	replayed := 0
	err := b.Storage.ReplayEvents(0, func(s uint64, typ string, payload []byte) error {
		ev, err := event.Decode(typ, payload)
		if err != nil {
			return err
		}
		seq.ReplayEvent(ev)
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal replay failed: %w", err)
	}
	if replayed > 0 {
		slog.Info("✅ Journal replayed after unclean shutdown",
			slog.Int("events", replayed),
			slog.Uint64("next_seq", seq.NextSeq()))
	}
	return nil
}

// EngineConfig assembles the sequencer tunables from the effective settings.
func (b *Bootstrap) EngineConfig() engine.Config {
	return engine.Config{
		InboxSize:     b.Config.Engine.InboxSize,
		SlippageTicks: b.Config.Engine.SlippageTicks,
		InstantTrade:  b.Config.Engine.InstantTrade,
		MarkInterval:  time.Duration(b.Config.Engine.MarkIntervalSec) * time.Second,
	}
}

// applyStoredSettings overlays engine settings saved by a previous session,
// then writes back the effective values.
func (b *Bootstrap) applyStoredSettings() error {
	stored, err := b.Storage.LoadSettings()
	if err != nil {
		return err
	}
	if v, ok := stored["slippage_ticks"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			b.Config.Engine.SlippageTicks = n
		}
	}
	if v, ok := stored["instant_trade"]; ok {
		if flag, err := strconv.ParseBool(v); err == nil {
			b.Config.Engine.InstantTrade = flag
		}
	}
	if v, ok := stored["mark_interval_sec"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			b.Config.Engine.MarkIntervalSec = n
		}
	}

	if err := b.Storage.SaveSetting("slippage_ticks", strconv.FormatInt(b.Config.Engine.SlippageTicks, 10)); err != nil {
		return err
	}
	if err := b.Storage.SaveSetting("instant_trade", strconv.FormatBool(b.Config.Engine.InstantTrade)); err != nil {
		return err
	}
	return b.Storage.SaveSetting("mark_interval_sec", strconv.Itoa(b.Config.Engine.MarkIntervalSec))
}
