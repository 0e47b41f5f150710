// Package config provides configuration loading and validation for the
// personabot application. Values come from defaults, an optional config.yaml,
// and BOT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components of the
// personabot system: logging, Telegram transport, completion service,
// conversation history, archive, persona, scheduler, and liveness endpoint.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AI        AIConfig        `mapstructure:"ai"`
	History   HistoryConfig   `mapstructure:"history"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Persona   PersonaConfig   `mapstructure:"persona"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Health    HealthConfig    `mapstructure:"health"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and dispatch settings. BotInfo is
// populated at startup from GetMe and is not read from configuration.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
	Keyword string `mapstructure:"keyword"`

	BotInfo *models.User `mapstructure:"-"`
}

// AIConfig holds the completion service credentials and the fixed sampling
// parameters sent with every request.
type AIConfig struct {
	APIKey           string        `mapstructure:"api_key"           validate:"required"`
	Model            string        `mapstructure:"model"             validate:"required"`
	MaxOutputTokens  int32         `mapstructure:"max_output_tokens" validate:"min=1"`
	Temperature      float32       `mapstructure:"temperature"       validate:"min=0,max=2"`
	TopP             float32       `mapstructure:"top_p"             validate:"min=0,max=1"`
	PresencePenalty  float32       `mapstructure:"presence_penalty"  validate:"min=-2,max=2"`
	FrequencyPenalty float32       `mapstructure:"frequency_penalty" validate:"min=-2,max=2"`
	Timeout          time.Duration `mapstructure:"timeout"           validate:"min=1s,max=10m"`
	FallbackReply    string        `mapstructure:"fallback_reply"    validate:"required"`
}

// HistoryConfig controls the durable conversation history file.
type HistoryConfig struct {
	Path       string `mapstructure:"path"        validate:"required"`
	MaxEntries int    `mapstructure:"max_entries" validate:"min=1"`
}

// ArchiveConfig controls the SQLite exchange archive.
type ArchiveConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PersonaConfig is the static persona surface: system instruction text,
// stylistic constraints, and per-participant profile strings keyed by
// username or by numeric user id rendered as text.
type PersonaConfig struct {
	System         string            `mapstructure:"system"          validate:"required"`
	Constraints    string            `mapstructure:"constraints"`
	Profiles       map[string]string `mapstructure:"profiles"`
	UnknownProfile string            `mapstructure:"unknown_profile" validate:"required"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// HealthConfig controls the liveness HTTP endpoint.
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// MessagesConfig holds fixed user-visible messages.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	HistoryReset  string `mapstructure:"history_reset"  validate:"required"`
	ResetError    string `mapstructure:"reset_error"    validate:"required"`
}

// LoadConfig reads configuration from the given YAML file (a missing file is
// not an error), overlays BOT_* environment variables, applies defaults, and
// validates the result. Missing required secrets (telegram.token, ai.api_key)
// fail validation, which is fatal to startup.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already knows about. The secrets
	// have no defaults, so they must be bound explicitly or an env-only
	// deployment could never satisfy validation.
	v.MustBindEnv("telegram.token")
	v.MustBindEnv("telegram.admin_id")
	v.MustBindEnv("ai.api_key")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
		}
		slog.Info("Config file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.keyword", "")

	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.max_output_tokens", 750)
	v.SetDefault("ai.temperature", 0.8)
	v.SetDefault("ai.top_p", 1.0)
	v.SetDefault("ai.presence_penalty", 0.5)
	v.SetDefault("ai.frequency_penalty", 0.5)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.fallback_reply", "Something went wrong. Try again later.")

	v.SetDefault("history.path", "chat_history.json")
	v.SetDefault("history.max_entries", 10)

	v.SetDefault("archive.path", "archive.db")

	v.SetDefault("persona.system", "You are a helpful assistant in a group chat. Keep replies short.")
	v.SetDefault("persona.constraints", "")
	v.SetDefault("persona.unknown_profile", "Unknown participant.")

	v.SetDefault("scheduler.tasks.history_flush.enabled", true)
	v.SetDefault("scheduler.tasks.history_flush.schedule", "0 */5 * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.addr", ":8000")

	v.SetDefault("messages.welcome", "I'm ready. Mention me in a group message to start a conversation.")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.history_reset", "Conversation history has been cleared.")
	v.SetDefault("messages.reset_error", "Failed to reset history. Please try again later.")
}
