package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/report"
	"github.com/gracebooks/gracebooks/internal/store"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

// FileName is the config file inside the data directory.
const FileName = "gracebooks.yaml"

// Config represents the top-level gracebooks.yaml configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Books    BooksConfig    `yaml:"books"`
	Trackers TrackersConfig `yaml:"trackers"`
	Remote   RemoteConfig   `yaml:"remote"`
	Git      GitConfig      `yaml:"git"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`

	// Profile selects a profile for this invocation only (GRACEBOOKS_PROFILE).
	Profile string `yaml:"-"`
}

// Storage backends for data.backend.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// DataConfig locates the database.
type DataConfig struct {
	Backend  string `yaml:"backend"` // "sqlite" or "json"
	DBPath   string `yaml:"db_path"` // relative to the data directory
	Currency string `yaml:"currency"`
}

// BooksConfig holds the accounting rules tied to the chart of accounts.
type BooksConfig struct {
	RetainedEarningsAccount string   `yaml:"retained_earnings_account"`
	EquityBaseAccount       int      `yaml:"equity_base_account"`
	EquityBaseYear          int      `yaml:"equity_base_year"`
	Tolerance               string   `yaml:"tolerance"`
	TrackedLiabilities      []string `yaml:"tracked_liabilities,flow"`
}

// TrackersConfig controls which accounts feed the auxiliary trackers.
type TrackersConfig struct {
	PrepaidLevel3Prefix string `yaml:"prepaid_level3_prefix"`
	ReceivedPrefix      string `yaml:"received_prefix"`
	CreditCardPrefix    string `yaml:"credit_card_prefix"`
	AmortizationPeriods int    `yaml:"amortization_periods"`
}

// RemoteConfig is the cloud save target.
type RemoteConfig struct {
	Kind     string `yaml:"kind"` // "dir" or "git"
	Path     string `yaml:"path"`
	FileName string `yaml:"file_name"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`
}

// ServerConfig configures `gracebooks serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a gracebooks.yaml file from disk. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.tolerance(); err != nil {
		return err
	}
	switch c.Data.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("parsing config: invalid data.backend %q (want sqlite or json)", c.Data.Backend)
	}
	return nil
}

// LoadDir reads <dir>/gracebooks.yaml if present, then applies <dir>/.env and
// GRACEBOOKS_* environment overrides.
func LoadDir(dir string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		// Existing environment variables win over .env.
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set("GRACEBOOKS_DB_BACKEND", &c.Data.Backend)
	set("GRACEBOOKS_DB_PATH", &c.Data.DBPath)
	set("GRACEBOOKS_PROFILE", &c.Profile)
	set("GRACEBOOKS_LOG_FORMAT", &c.Log.Format)
	set("GRACEBOOKS_LOG_LEVEL", &c.Log.Level)
	set("GRACEBOOKS_SERVER_ADDR", &c.Server.Addr)
	set("GRACEBOOKS_REMOTE_PATH", &c.Remote.Path)
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

// Default returns a Config matching the built-in chart of accounts.
func Default() *Config {
	tr := tracker.DefaultOptions()
	return &Config{
		Data: DataConfig{
			Backend:  BackendSQLite,
			DBPath:   "gracebooks.db",
			Currency: "TWD",
		},
		Books: BooksConfig{
			RetainedEarningsAccount: "3111",
			EquityBaseAccount:       3112,
			EquityBaseYear:          2020,
			Tolerance:               "0.001",
			TrackedLiabilities:      []string{"2311", "2312"},
		},
		Trackers: TrackersConfig{
			PrepaidLevel3Prefix: tr.PrepaidLevel3Prefix,
			ReceivedPrefix:      tr.ReceivedPrefix,
			CreditCardPrefix:    tr.CreditCardPrefix,
			AmortizationPeriods: tr.AmortizationPeriods,
		},
		Remote: RemoteConfig{
			Kind:     "dir",
			FileName: "accounting_app_backup.json",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "gracebooks",
			AuthorEmail: "gracebooks@localhost",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// DBPath resolves the database path against the data directory. The json
// backend swaps a .db extension for .json.
func (c *Config) DBPath(dir string) string {
	path := c.Data.DBPath
	if c.Data.Backend == BackendJSON && filepath.Ext(path) == ".db" {
		path = strings.TrimSuffix(path, ".db") + ".json"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// RemotePath resolves the remote folder against the data directory.
// An empty path means <dir>/remote.
func (c *Config) RemotePath(dir string) string {
	switch {
	case c.Remote.Path == "":
		return filepath.Join(dir, "remote")
	case filepath.IsAbs(c.Remote.Path):
		return c.Remote.Path
	default:
		return filepath.Join(dir, c.Remote.Path)
	}
}

func (c *Config) tolerance() (decimal.Decimal, error) {
	if c.Books.Tolerance == "" {
		return decimal.New(1, -3), nil
	}
	tol, err := decimal.NewFromString(c.Books.Tolerance)
	if err != nil || tol.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("parsing config: invalid books.tolerance %q", c.Books.Tolerance)
	}
	return tol, nil
}

// StoreConfig converts the books and trackers sections into store options.
func (c *Config) StoreConfig() (store.Config, error) {
	tol, err := c.tolerance()
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Tolerance: tol,
		Closing: closing.Options{
			EquityBase: c.Books.EquityBaseAccount,
			BaseYear:   c.Books.EquityBaseYear,
			Tolerance:  tol,
		},
		Trackers: tracker.Options{
			PrepaidLevel3Prefix: c.Trackers.PrepaidLevel3Prefix,
			ReceivedPrefix:      c.Trackers.ReceivedPrefix,
			CreditCardPrefix:    c.Trackers.CreditCardPrefix,
			AmortizationPeriods: c.Trackers.AmortizationPeriods,
			Tolerance:           tol,
		},
		Reports: report.Options{
			RetainedEarnings:   c.Books.RetainedEarningsAccount,
			TrackedLiabilities: append([]string(nil), c.Books.TrackedLiabilities...),
			Tolerance:          tol,
			Currency:           c.Data.Currency,
		},
	}, nil
}
