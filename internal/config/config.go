package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken            string        `yaml:"discord_token"`
	DatabasePath            string        `yaml:"database_path"`
	LogLevel                string        `yaml:"log_level"`
	LogFile                 string        `yaml:"log_file"`
	RetentionDays           int           `yaml:"retention_days"`
	TrackerRetentionSeconds int           `yaml:"tracker_retention_seconds"`
	Health                  HealthConfig  `yaml:"health"`
	Slowmode                SlowmodeYAML  `yaml:"slowmode"`
	Notifications           NotifyConfig  `yaml:"notifications"`
	Janitor                 JanitorConfig `yaml:"janitor"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type SlowmodeYAML struct {
	HoldMinutes int `yaml:"hold_minutes"`
}

type NotifyConfig struct {
	ChannelWarnEnabled bool        `yaml:"channel_warn_enabled"`
	DMWarnEnabled      bool        `yaml:"dm_warn_enabled"`
	ModLogChannel      string      `yaml:"mod_log_channel"`
	EmbedColors        EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

type JanitorConfig struct {
	IntervalMinutes   int `yaml:"interval_minutes"`
	MessageEventHours int `yaml:"message_event_hours"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:            "/data/modguard.db",
		LogLevel:                "info",
		LogFile:                 "",
		RetentionDays:           30,
		TrackerRetentionSeconds: 60,
		Health:                  HealthConfig{Enabled: false, Addr: ":8080"},
		Slowmode:                SlowmodeYAML{HoldMinutes: 5},
		Notifications: NotifyConfig{
			ChannelWarnEnabled: true,
			DMWarnEnabled:      true,
			ModLogChannel:      "",
			EmbedColors: EmbedColors{
				Action:  0xF59E0B,
				Warning: 0xEF4444,
				Error:   0xF97316,
			},
		},
		Janitor: JanitorConfig{IntervalMinutes: 60, MessageEventHours: 24},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envString("LOG_FILE", cfg.LogFile)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.TrackerRetentionSeconds = envInt("TRACKER_RETENTION_SECONDS", cfg.TrackerRetentionSeconds)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Slowmode.HoldMinutes = envInt("SLOWMODE_HOLD_MINUTES", cfg.Slowmode.HoldMinutes)
	cfg.Notifications.ChannelWarnEnabled = envBool("CHANNEL_WARN_ENABLED", cfg.Notifications.ChannelWarnEnabled)
	cfg.Notifications.DMWarnEnabled = envBool("DM_WARN_ENABLED", cfg.Notifications.DMWarnEnabled)
	cfg.Notifications.ModLogChannel = envString("MOD_LOG_CHANNEL", cfg.Notifications.ModLogChannel)
	cfg.Janitor.IntervalMinutes = envInt("JANITOR_INTERVAL_MINUTES", cfg.Janitor.IntervalMinutes)
	cfg.Janitor.MessageEventHours = envInt("JANITOR_MESSAGE_EVENT_HOURS", cfg.Janitor.MessageEventHours)
}

// BuildLogger produces the process logger: JSON to stderr, plus a rotating
// file sink when a log file is configured.
func BuildLogger(level, file string) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	atomicLevel := zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), atomicLevel),
	}
	if file != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(encoder, sink, atomicLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
