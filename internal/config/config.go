package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CHARTD_SERVER_ADDR.
const EnvPrefix = "CHARTD"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr" envconfig:"SERVER_ADDR"`
		MetricsPath string `yaml:"metrics_path" envconfig:"SERVER_METRICS_PATH"`
	} `yaml:"server"`
	DataSource struct {
		Kind        string   `yaml:"kind" envconfig:"SOURCE_KIND"`
		Symbols     []string `yaml:"symbols" envconfig:"SOURCE_SYMBOLS"`
		HistoryDays int      `yaml:"history_days" envconfig:"SOURCE_HISTORY_DAYS"`
		Proxy       string   `yaml:"proxy" envconfig:"SOURCE_PROXY"`
	} `yaml:"data_source"`
	Generator struct {
		BasePrice  float64 `yaml:"base_price" envconfig:"GENERATOR_BASE_PRICE"`
		Volatility float64 `yaml:"volatility" envconfig:"GENERATOR_VOLATILITY"`
		Seed       uint64  `yaml:"seed" envconfig:"GENERATOR_SEED"`
	} `yaml:"generator"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" envconfig:"SCHEDULE_REFRESH_CRON"`
		RunOnStart  bool   `yaml:"run_on_start" envconfig:"SCHEDULE_RUN_ON_START"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then a .env file next to the process,
// then CHARTD_* environment overrides, and finally fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays CHARTD_* variables; unset variables leave fields untouched.
func applyEnv(cfg *Config) error {
	sections := []any{&cfg.Server, &cfg.DataSource, &cfg.Generator, &cfg.Schedule}
	for _, sec := range sections {
		if err := envconfig.Process(EnvPrefix, sec); err != nil {
			return fmt.Errorf("env overrides: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = "/metrics"
	}
	if c.DataSource.Kind == "" {
		c.DataSource.Kind = "synthetic"
	}
	c.DataSource.Kind = strings.ToLower(c.DataSource.Kind)
	for i, sym := range c.DataSource.Symbols {
		c.DataSource.Symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	if len(c.DataSource.Symbols) == 0 {
		c.DataSource.Symbols = []string{"HSI"}
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 500
	}
	if c.Generator.BasePrice == 0 {
		c.Generator.BasePrice = 28000
	}
	if c.Generator.Volatility == 0 {
		c.Generator.Volatility = 0.02
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 0 22 * * 1-5"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Kind {
	case "synthetic", "yahoo":
	default:
		return fmt.Errorf("data_source.kind must be synthetic or yahoo, got %q", c.DataSource.Kind)
	}
	if c.DataSource.HistoryDays < 1 {
		return fmt.Errorf("data_source.history_days must be positive")
	}
	for _, s := range c.DataSource.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("data_source.symbols contains an empty symbol")
		}
	}
	if c.Generator.BasePrice <= 0 {
		return fmt.Errorf("generator.base_price must be positive")
	}
	if c.Generator.Volatility <= 0 || c.Generator.Volatility >= 1 {
		return fmt.Errorf("generator.volatility must be in (0, 1)")
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return fmt.Errorf("server.metrics_path must start with /")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	return nil
}
