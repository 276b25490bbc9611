// Package config loads process settings from config/config.<env>.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

const (
	GatewayDiscord = "discord"
	GatewayWeb     = "web"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	Gateway    string        `mapstructure:"gateway"`
	Discord    Discord       `mapstructure:"discord"`
	Engine     Engine        `mapstructure:"engine"`
	Roles      []Role        `mapstructure:"roles"`
	Limits     Limits        `mapstructure:"limits"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
}

type Discord struct {
	Token           string `mapstructure:"token"`
	TargetChannelID string `mapstructure:"target_channel_id"`
}

type Engine struct {
	JoinPolicy string `mapstructure:"join_policy"`
}

// Role is one configured role with its default quota and join control style.
type Role struct {
	Name    string `mapstructure:"name"`
	Default int    `mapstructure:"default"`
	Style   string `mapstructure:"style"`
}

// Limits bounds inbound events per actor on the web gateway.
type Limits struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

// MinSecretLen is the shortest cookie signing key accepted for the web gateway.
const MinSecretLen = 32

var (
	ErrUnknownGateway = errors.New("unknown gateway")
	ErrMissingToken   = errors.New("discord token is required")
	ErrWeakSecret     = errors.New("secret must be at least 32 bytes")
	ErrBadStyle       = errors.New("unknown control style")
	ErrBadLimits      = errors.New("limits must be positive")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("gateway", GatewayDiscord)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.target_channel_id", "")
	v.SetDefault("engine.join_policy", core.CommitVacate.String())
	v.SetDefault("roles", []map[string]any{
		{"name": "Tank", "default": 2, "style": string(core.StylePrimary)},
		{"name": "Healer", "default": 2, "style": string(core.StyleSuccess)},
		{"name": "DPS", "default": 4, "style": string(core.StyleDanger)},
	})
	v.SetDefault("limits.events", 5)
	v.SetDefault("limits.interval", "1s")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
}

// Load reads config/config.<CONFIG_ENV>.yaml, dev by default.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads the given file. A missing file falls back to defaults and
// the environment.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix("RECRUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("discord.token", "RECRUIT_DISCORD_TOKEN", "DISCORD_TOKEN")
	_ = v.BindEnv("discord.target_channel_id", "RECRUIT_DISCORD_TARGET_CHANNEL_ID", "TARGET_CHANNEL_ID")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not loaded, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", fileName, err)
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("gateway", cfg.Gateway).
		Str("join_policy", cfg.Engine.JoinPolicy).
		Int("roles", len(cfg.Roles)).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Gateway {
	case GatewayDiscord:
		if c.Discord.Token == "" {
			return ErrMissingToken
		}
	case GatewayWeb:
		// Without a signing key no session cookie is issued and every
		// connection gets a new actor id.
		if len(c.Secret) < MinSecretLen {
			return ErrWeakSecret
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGateway, c.Gateway)
	}
	if _, err := core.ParseMovePolicy(c.Engine.JoinPolicy); err != nil {
		return err
	}
	if err := domain.ValidateRoles(c.RoleQuotas()); err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	for _, r := range c.Roles {
		if r.Style != "" && !core.ValidStyle(core.Style(r.Style)) {
			return fmt.Errorf("%w: %q for role %s", ErrBadStyle, r.Style, r.Name)
		}
	}
	if c.Limits.Events <= 0 || c.Limits.Interval <= 0 {
		return ErrBadLimits
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// RoleQuotas returns the configured roles with their default quotas.
func (c *Config) RoleQuotas() []domain.RoleQuota {
	out := make([]domain.RoleQuota, 0, len(c.Roles))
	for _, r := range c.Roles {
		out = append(out, domain.RoleQuota{Name: r.Name, Capacity: r.Default})
	}
	return out
}

// RoleStyles returns the join control style overrides.
func (c *Config) RoleStyles() map[string]core.Style {
	out := make(map[string]core.Style, len(c.Roles))
	for _, r := range c.Roles {
		if r.Style != "" {
			out[r.Name] = core.Style(r.Style)
		}
	}
	return out
}

// MovePolicy returns the parsed engine.join_policy. Validate has already
// rejected unknown values.
func (c *Config) MovePolicy() core.MovePolicy {
	p, _ := core.ParseMovePolicy(c.Engine.JoinPolicy)
	return p
}

// Level returns the parsed log level, info when unset.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
