package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// InstrumentConfig is the yaml form of one instrument's reference data.
type InstrumentConfig struct {
	Symbol     string          `yaml:"symbol"`
	Tick       decimal.Decimal `yaml:"tick"`
	Multiplier int64           `yaml:"multiplier"`
	Precision  int32           `yaml:"precision"`
}

// Config holds every runtime setting. Loaded from yaml, then overridden by
// environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Account struct {
		InitialCash decimal.Decimal `yaml:"initial_cash"`
	} `yaml:"account"`

	Engine struct {
		InboxSize       int   `yaml:"inbox_size"`
		SlippageTicks   int64 `yaml:"slippage_ticks"`
		InstantTrade    bool  `yaml:"instant_trade"`
		MarkIntervalSec int   `yaml:"mark_interval_sec"`
	} `yaml:"engine"`

	Feed struct {
		Mode string `yaml:"mode"` // "sim" or "ws"
		WS   struct {
			URL     string   `yaml:"url"`
			Symbols []string `yaml:"symbols"`
		} `yaml:"ws"`
		Sim struct {
			IntervalMS int   `yaml:"interval_ms"`
			Seed       int64 `yaml:"seed"`
		} `yaml:"sim"`
	} `yaml:"feed"`

	Strategy struct {
		Enabled     bool            `yaml:"enabled"`
		Symbol      string          `yaml:"symbol"`
		ShortPeriod int             `yaml:"short_period"`
		LongPeriod  int             `yaml:"long_period"`
		OrderQty    decimal.Decimal `yaml:"order_qty"`
	} `yaml:"strategy"`

	Instruments []InstrumentConfig `yaml:"instruments"`

	Storage struct {
		Path string `yaml:"path"` // empty selects the per-user data dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	for _, ic := range c.Instruments {
		if ic.Symbol == "" {
			return fmt.Errorf("instrument with empty symbol")
		}
		if !ic.Tick.IsPositive() {
			return fmt.Errorf("instrument %s: tick must be positive", ic.Symbol)
		}
		if ic.Multiplier <= 0 {
			return fmt.Errorf("instrument %s: multiplier must be positive", ic.Symbol)
		}
	}

	if c.Account.InitialCash.IsNegative() {
		return fmt.Errorf("initial cash must not be negative")
	}
	if c.Engine.SlippageTicks < 0 {
		return fmt.Errorf("slippage ticks must not be negative")
	}

	switch c.Feed.Mode {
	case "sim":
		if c.Feed.Sim.IntervalMS <= 0 {
			return fmt.Errorf("sim feed interval must be positive")
		}
	case "ws":
		if !strings.HasPrefix(c.Feed.WS.URL, "ws://") && !strings.HasPrefix(c.Feed.WS.URL, "wss://") {
			return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WS.URL)
		}
		if len(c.Feed.WS.Symbols) == 0 {
			return fmt.Errorf("at least one feed symbol is required")
		}
	default:
		return fmt.Errorf("unknown feed mode: %q", c.Feed.Mode)
	}

	if c.Strategy.Enabled {
		if c.Strategy.Symbol == "" {
			return fmt.Errorf("strategy symbol is required")
		}
		if c.Strategy.ShortPeriod <= 0 || c.Strategy.ShortPeriod >= c.Strategy.LongPeriod {
			return fmt.Errorf("strategy periods must satisfy 0 < short < long")
		}
		if !c.Strategy.OrderQty.IsPositive() {
			return fmt.Errorf("strategy order qty must be positive")
		}
	}

	return nil
}

// InstrumentTable converts the configured reference data into the domain
// registry, with decimal ticks fixed into micros exactly once.
func (c *Config) InstrumentTable() *domain.InstrumentTable {
	instruments := make([]domain.Instrument, 0, len(c.Instruments))
	for _, ic := range c.Instruments {
		instruments = append(instruments, domain.Instrument{
			Symbol:     ic.Symbol,
			TickMicros: quant.PriceFromDecimal(ic.Tick),
			Multiplier: ic.Multiplier,
			Precision:  ic.Precision,
		})
	}
	return domain.NewInstrumentTable(instruments)
}

// InitialCashMicros returns the configured starting cash in micros.
func (c *Config) InitialCashMicros() int64 {
	return int64(quant.PriceFromDecimal(c.Account.InitialCash))
}

// overrideWithEnv applies environment overrides when present.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("PAPER_FEED_WS_URL"); url != "" {
		cfg.Feed.WS.URL = url
	}
	if level := os.Getenv("PAPER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("PAPER_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
