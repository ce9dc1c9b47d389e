// apps/go-server/internal/config/config.go
//
// Server configuration.
//
// Sources, later ones win:
//  1. built-in defaults
//  2. optional YAML rules file (CONFIG_FILE)
//  3. environment variables (a `.env` file is loaded by main)
//
// The log level, game rules and narration section are reloaded at runtime
// (Watch); ports, database and secrets need a restart.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/roulette/apps/go-server/internal/game"
)

const (
	DefaultPort         = "5175"
	DefaultLogLevel     = "info"
	DefaultDBPath       = "./data/app.db"
	DefaultClientOrigin = "http://localhost:5173"
	DefaultDailySalt    = "local_dev_salt"
	DefaultJWTSecret    = "dev_secret_change_me"
	DefaultJWTDays      = 14
)

// Config is the full server configuration.
type Config struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	DBPath       string `yaml:"db_path"`
	ClientOrigin string `yaml:"client_origin"`
	DailySalt    string `yaml:"daily_salt"`

	// Production enables Secure cookies (NODE_ENV=production).
	Production bool `yaml:"production"`

	Auth      AuthConfig      `yaml:"auth"`
	Game      game.Rules      `yaml:"game"`
	Narration NarrationConfig `yaml:"narration"`
}

// AuthConfig holds token settings. The secret is never read from the file.
type AuthConfig struct {
	Secret      string `yaml:"-"`
	ExpiresDays int    `yaml:"expires_days"`
	CookieName  string `yaml:"cookie_name"`
}

// NarrationConfig customises round phrases.
type NarrationConfig struct {
	// Insults replace the built-in failure prefixes when non-empty.
	Insults []string `yaml:"insults"`
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Game = cfg.Game.Normalize()
	return cfg, nil
}

// ApplyLogLevel sets the global zerolog level from LogLevel.
func (c *Config) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

func defaults() *Config {
	return &Config{
		Port:         DefaultPort,
		LogLevel:     DefaultLogLevel,
		DBPath:       DefaultDBPath,
		ClientOrigin: DefaultClientOrigin,
		DailySalt:    DefaultDailySalt,
		Auth: AuthConfig{
			Secret:      DefaultJWTSecret,
			ExpiresDays: DefaultJWTDays,
			CookieName:  "roulette_token",
		},
		Game: game.DefaultRules(),
	}
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DB_PATH", &cfg.DBPath)
	str("CLIENT_ORIGIN", &cfg.ClientOrigin)
	str("DAILY_SALT", &cfg.DailySalt)
	str("JWT_SECRET", &cfg.Auth.Secret)
	str("COOKIE_NAME", &cfg.Auth.CookieName)
	if os.Getenv("NODE_ENV") == "production" {
		cfg.Production = true
	}
	for key, dst := range map[string]*int{
		"JWT_EXPIRES_DAYS": &cfg.Auth.ExpiresDays,
		"GAME_ROUNDS":      &cfg.Game.Rounds,
		"GAME_MAX_THROWS":  &cfg.Game.MaxThrows,
		"GAME_PASS_SCORE":  &cfg.Game.PassScore,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("port %q is not a number", cfg.Port)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		return fmt.Errorf("log_level %q is not a zerolog level", cfg.LogLevel)
	}
	if cfg.Auth.ExpiresDays <= 0 {
		return fmt.Errorf("auth.expires_days must be positive")
	}
	if cfg.Production && cfg.Auth.Secret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if cfg.Game.Rounds < 0 || cfg.Game.MaxThrows < 0 {
		return fmt.Errorf("game rounds and max_throws must not be negative")
	}
	for i, s := range cfg.Narration.Insults {
		if s == "" {
			return fmt.Errorf("narration.insults[%d] is empty", i)
		}
	}
	return nil
}
