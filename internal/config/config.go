package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int `yaml:"port"`       // public mini-app API + webhooks
	AdminPort int `yaml:"admin_port"` // /metrics
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PayPalConfig struct {
	ClientID  string `yaml:"client_id"`
	Secret    string `yaml:"secret"`
	Sandbox   bool   `yaml:"sandbox"`
	WebhookID string `yaml:"webhook_id"` // empty disables signature verification (dev only)
	ReturnURL string `yaml:"return_url"`
	CancelURL string `yaml:"cancel_url"`
}

type ContentConfig struct {
	Dir string `yaml:"dir"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// How old an init-data payload may be before it is rejected.
	InitDataTTL time.Duration `yaml:"init_data_ttl"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Env        string           `yaml:"env"` // production|development
	Bot        BotConfig        `yaml:"bot"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	PayPal     PayPalConfig     `yaml:"paypal"`
	Content    ContentConfig    `yaml:"content"`
	Auth       AuthConfig       `yaml:"auth"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AdminPort == 0 {
		cfg.Server.AdminPort = 9090
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Auth.InitDataTTL <= 0 {
		cfg.Auth.InitDataTTL = 15 * time.Minute
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = 10 * time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.PayPal.ClientID == "" || cfg.PayPal.Secret == "" {
		return nil, errors.New("paypal.client_id and paypal.secret are required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.IsProduction() && cfg.PayPal.WebhookID == "" {
		return nil, errors.New("paypal.webhook_id is required in production")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
