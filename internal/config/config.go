package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // update handling goroutines
	AdminIDs []int64 `yaml:"admin_ids"`
	// DryRun logs outgoing messages instead of calling Telegram. No updates are polled.
	DryRun bool `yaml:"dry_run"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // ops server: /healthz, /metrics
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	YooMoney struct {
		Token      string `yaml:"token"`
		Wallet     string `yaml:"wallet"`
		HistoryURL string `yaml:"history_url"`
		PaymentURL string `yaml:"payment_url"`
	} `yaml:"yoomoney"`
	Description string `yaml:"description"` // "targets" shown on the payment form
	// Manual check presses allowed per user within CheckWindow.
	CheckLimit  int           `yaml:"check_limit"`
	CheckWindow time.Duration `yaml:"check_window"`
}

type SchedulerConfig struct {
	PaymentInterval time.Duration `yaml:"payment_interval"`
	DeleteInterval  time.Duration `yaml:"delete_interval"`
	ExpiryInterval  time.Duration `yaml:"expiry_interval"`
	// NotifyDays is the expiry warning horizon.
	NotifyDays int `yaml:"notify_days"`
	// BatchSize caps how many rows one sweep loads.
	BatchSize int `yaml:"batch_size"`
	// UseLock serializes sweeps across instances through Redis.
	UseLock bool `yaml:"use_lock"`
}

type CatalogConfig struct {
	// VideoFileIDs[i] is the Telegram file id of lesson i+1.
	VideoFileIDs       []string      `yaml:"video_file_ids"`
	MaxMessageLifetime time.Duration `yaml:"max_message_lifetime"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Catalog   CatalogConfig   `yaml:"catalog"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes raw YAML and validates the result.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BOT_TOKEN")); v != "" {
		cfg.Bot.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.Redis.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("YOOMONEY_TOKEN")); v != "" {
		cfg.Payment.YooMoney.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("YOOMONEY_WALLET")); v != "" {
		cfg.Payment.YooMoney.Wallet = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Payment.YooMoney.HistoryURL == "" {
		cfg.Payment.YooMoney.HistoryURL = "https://yoomoney.ru/api/operation-history"
	}
	if cfg.Payment.YooMoney.PaymentURL == "" {
		cfg.Payment.YooMoney.PaymentURL = "https://yoomoney.ru/quickpay/confirm.xml"
	}
	if cfg.Payment.Description == "" {
		cfg.Payment.Description = "Доступ к видео-урокам"
	}
	if cfg.Payment.CheckLimit <= 0 {
		cfg.Payment.CheckLimit = 5
	}
	if cfg.Payment.CheckWindow <= 0 {
		cfg.Payment.CheckWindow = time.Minute
	}

	if cfg.Scheduler.PaymentInterval <= 0 {
		cfg.Scheduler.PaymentInterval = 10 * time.Second
	}
	if cfg.Scheduler.DeleteInterval <= 0 {
		cfg.Scheduler.DeleteInterval = time.Minute
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.NotifyDays <= 0 {
		cfg.Scheduler.NotifyDays = 3
	}
	if cfg.Scheduler.BatchSize <= 0 {
		cfg.Scheduler.BatchSize = 200
	}
	if cfg.Catalog.MaxMessageLifetime <= 0 {
		cfg.Catalog.MaxMessageLifetime = 24 * time.Hour
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && !c.Bot.DryRun {
		return errors.New("bot.token is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Scheduler.UseLock && c.Redis.URL == "" {
		return errors.New("redis.url is required when scheduler.use_lock is set")
	}
	if len(c.Catalog.VideoFileIDs) > 10 {
		return fmt.Errorf("catalog.video_file_ids: at most 10 lessons, got %d", len(c.Catalog.VideoFileIDs))
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
