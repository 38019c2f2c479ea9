package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all sobres configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Display DisplayConfig `toml:"display"`
	Budget  BudgetConfig  `toml:"budget"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// GeneralConfig selects where the ledger lives.
type GeneralConfig struct {
	Backend   string `toml:"backend"`
	DataDir   string `toml:"data_dir,omitempty"`
	Namespace string `toml:"namespace"`
}

// DisplayConfig holds formatting and theme settings.
type DisplayConfig struct {
	CurrencySymbol string `toml:"currency_symbol"`
	Theme          string `toml:"theme"`
}

// BudgetConfig holds ledger behaviour settings.
type BudgetConfig struct {
	// ConfirmOverspend asks before recording an expense larger than the
	// funds left in its category. When false such expenses are recorded.
	ConfirmOverspend bool `toml:"confirm_overspend"`
}

// ServerConfig holds the read-only HTTP server settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
	RatePerSec   int    `toml:"rate_per_sec"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Backend:   "sqlite",
			Namespace: "default",
		},
		Display: DisplayConfig{
			CurrencySymbol: "$",
			Theme:          "flexoki-dark",
		},
		Budget: BudgetConfig{
			ConfirmOverspend: true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  5,
			EventsBuffer: 200,
			RatePerSec:   20,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sobres")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sobres")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	if p := os.Getenv("SOBRES_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG-compliant data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sobres")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "sobres")
}

// DataDir returns the configured data directory, or the default one.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return expandHome(c.General.DataDir)
	}
	return DefaultDataDir()
}

// Interval returns the server polling interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Server.IntervalSec) * time.Second
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory and SOBRES_* variables are
// applied on top of the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any SOBRES_* environment variables.
func ApplyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("SOBRES_BACKEND", &cfg.General.Backend)
	setString("SOBRES_DATA_DIR", &cfg.General.DataDir)
	setString("SOBRES_NAMESPACE", &cfg.General.Namespace)
	setString("SOBRES_CURRENCY", &cfg.Display.CurrencySymbol)
	setString("SOBRES_THEME", &cfg.Display.Theme)
	setString("SOBRES_ADDR", &cfg.Server.Addr)
	setString("SOBRES_LOG_LEVEL", &cfg.Log.Level)

	if v := os.Getenv("SOBRES_CONFIRM_OVERSPEND"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SOBRES_CONFIRM_OVERSPEND: %w", err)
		}
		cfg.Budget.ConfirmOverspend = b
	}
	if v := os.Getenv("SOBRES_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOBRES_INTERVAL_SEC: %w", err)
		}
		cfg.Server.IntervalSec = n
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	switch c.General.Backend {
	case "sqlite", "bolt", "memory":
	default:
		errs = append(errs, fmt.Errorf("invalid backend %q: must be one of sqlite, bolt, memory", c.General.Backend))
	}

	if strings.TrimSpace(c.General.Namespace) == "" {
		errs = append(errs, errors.New("namespace cannot be empty"))
	} else if strings.ContainsAny(c.General.Namespace, `/\`) {
		errs = append(errs, fmt.Errorf("invalid namespace %q: must not contain path separators", c.General.Namespace))
	}

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Errorf("invalid server addr %q: %w", c.Server.Addr, err))
	}
	if c.Server.IntervalSec < 1 {
		errs = append(errs, fmt.Errorf("invalid interval_sec %d: must be at least 1", c.Server.IntervalSec))
	}
	if c.Server.EventsBuffer < 1 {
		errs = append(errs, fmt.Errorf("invalid events_buffer %d: must be at least 1", c.Server.EventsBuffer))
	}
	if c.Server.RatePerSec < 1 {
		errs = append(errs, fmt.Errorf("invalid rate_per_sec %d: must be at least 1", c.Server.RatePerSec))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
