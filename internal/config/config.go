package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// FileName is the default config file name.
const FileName = "walletrecon.yaml"

// Config represents the top-level walletrecon.yaml configuration.
type Config struct {
	InputDir         string           `yaml:"input_dir"`
	BaselineDir      string           `yaml:"baseline_dir"`
	OutputPrefix     string           `yaml:"output_prefix"`
	IntermediateDir  string           `yaml:"intermediate_dir,omitempty"`
	ReportPath       string           `yaml:"report_path,omitempty"`
	Tolerances       TolerancesConfig `yaml:"tolerances"`
	AccountLock      bool             `yaml:"account_lock"`
	IncrementalOnly  bool             `yaml:"incremental_only"`
	AutoConfirm      bool             `yaml:"auto_confirm"`
	LogLevel         string           `yaml:"log_level"`
	LockRemarks      []string         `yaml:"lock_remarks"`
	Channels         []ChannelConfig  `yaml:"channels,omitempty"`
	ProviderPrefixes []string         `yaml:"provider_prefixes"`
	Git              GitConfig        `yaml:"git"`
}

// TolerancesConfig holds matching tolerances as written in the file.
// Durations accept Go syntax or a day count such as "30d".
type TolerancesConfig struct {
	Amount       string `yaml:"amount"`
	Date         string `yaml:"date"`
	RefundWindow string `yaml:"refund_window"`
}

// ChannelConfig overrides a built-in channel or adds file patterns to it.
type ChannelConfig struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label,omitempty"`
	Kind     string   `yaml:"kind,omitempty"` // wallet, card or bank
	Patterns []string `yaml:"patterns,omitempty"`
}

// GitConfig controls committing the output directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a walletrecon.yaml file from disk. Fields absent from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		InputDir:     "statements",
		BaselineDir:  "baseline",
		OutputPrefix: "output/ledger",
		Tolerances: TolerancesConfig{
			Amount:       "0.01",
			Date:         "48h",
			RefundWindow: "30d",
		},
		AccountLock:      true,
		LogLevel:         "info",
		LockRemarks:      []string{"余额调整产生的烂账"},
		ProviderPrefixes: []string{"支付宝", "财付通", "微信支付", "京东支付", "美团支付", "云闪付"},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "walletrecon",
			AuthorEmail: "walletrecon@localhost",
		},
	}
}

// AmountTolerance parses the amount tolerance.
func (c *Config) AmountTolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Tolerances.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount tolerance %q: %w", c.Tolerances.Amount, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount tolerance %s is negative", d)
	}
	return d, nil
}

// DateTolerance parses the date tolerance.
func (c *Config) DateTolerance() (time.Duration, error) {
	return parseDuration("date tolerance", c.Tolerances.Date)
}

// RefundWindow parses the refund window.
func (c *Config) RefundWindow() (time.Duration, error) {
	return parseDuration("refund window", c.Tolerances.RefundWindow)
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := normalize.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s %q is negative", name, s)
	}
	return d, nil
}

// Validate checks that every tolerance parses.
func (c *Config) Validate() error {
	if _, err := c.AmountTolerance(); err != nil {
		return err
	}
	if _, err := c.DateTolerance(); err != nil {
		return err
	}
	if _, err := c.RefundWindow(); err != nil {
		return err
	}
	for _, ch := range c.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channel entry without id")
		}
		switch ch.Kind {
		case "", "wallet", "card", "bank":
		default:
			return fmt.Errorf("channel %s: unknown kind %q", ch.ID, ch.Kind)
		}
	}
	return nil
}
