package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret         string        `yaml:"secret"`
	ExpiresIn      time.Duration `yaml:"expires_in"`
	ResetExpiresIn time.Duration `yaml:"reset_expires_in"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	AppURL       string `yaml:"app_url"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type ReportsConfig struct {
	FontPath string `yaml:"font_path"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Email    EmailConfig    `yaml:"email"`
	Admin    AdminConfig    `yaml:"admin"`
	GitHub   GitHubConfig   `yaml:"github"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reports  ReportsConfig  `yaml:"reports"`
}

// Load reads the yaml file at path (a missing file is allowed), loads an
// optional .env and applies TASKHUB_* overrides on top.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.JWT.ExpiresIn == 0 {
		cfg.JWT.ExpiresIn = 24 * time.Hour
	}
	if cfg.JWT.ResetExpiresIn == 0 {
		cfg.JWT.ResetExpiresIn = 15 * time.Minute
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
}

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"TASKHUB_DB_URL":               &cfg.Database.DSN,
		"TASKHUB_JWT_SECRET":           &cfg.JWT.Secret,
		"TASKHUB_SMTP_HOST":            &cfg.Email.SMTPHost,
		"TASKHUB_SMTP_USER":            &cfg.Email.SMTPUser,
		"TASKHUB_SMTP_PASSWORD":        &cfg.Email.SMTPPassword,
		"TASKHUB_FROM_EMAIL":           &cfg.Email.FromEmail,
		"TASKHUB_ADMIN_EMAIL":          &cfg.Admin.Email,
		"TASKHUB_ADMIN_PASSWORD":       &cfg.Admin.Password,
		"TASKHUB_GITHUB_CLIENT_ID":     &cfg.GitHub.ClientID,
		"TASKHUB_GITHUB_CLIENT_SECRET": &cfg.GitHub.ClientSecret,
		"TASKHUB_GITHUB_REDIRECT_URL":  &cfg.GitHub.RedirectURL,
		"TASKHUB_TELEGRAM_BOT_TOKEN":   &cfg.Telegram.BotToken,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("TASKHUB_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKHUB_PORT: %w", err)
		}
		cfg.Server.Port = n
	}
	if v, ok := os.LookupEnv("TASKHUB_JWT_EXPIRES_IN"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKHUB_JWT_EXPIRES_IN: %w", err)
		}
		cfg.JWT.ExpiresIn = d
	}
	if v, ok := os.LookupEnv("TASKHUB_TELEGRAM_CHAT_ID"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TASKHUB_TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = n
	}
	return nil
}
