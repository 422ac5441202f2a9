package config

import (
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/validator"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Log       Log       `yaml:"log"`
	Game      Game      `yaml:"game"`
	Redis     Redis     `yaml:"redis"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

type Game struct {
	Type          string        `yaml:"type" env:"GAME_TYPE" env-default:"human-vs-computer"`
	Difficulty    string        `yaml:"difficulty" env:"GAME_DIFFICULTY" env-default:"hard"`
	ComputerDelay time.Duration `yaml:"computer-delay" env:"GAME_COMPUTER_DELAY" env-default:"1s" validate:"gte=0"`
	PromptDelay   time.Duration `yaml:"prompt-delay" env:"GAME_PROMPT_DELAY" env-default:"1s" validate:"gte=0"`
}

// Redis is optional; events are only published when Addr is set.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0" validate:"gte=0"`

	// StateTTL bounds how long a mirrored session state outlives its last event.
	StateTTL time.Duration `yaml:"state-ttl" env:"REDIS_STATE_TTL" env-default:"1h" validate:"gt=0"`
}

type Telemetry struct {
	Enabled        bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint       string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317" validate:"required_if=Enabled true"`
	ServiceName    string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tictactoe-engine" validate:"required"`
	ServiceVersion string `yaml:"service-version" env-default:"v0.1.0"`
	StdoutTraces   bool   `yaml:"stdout-traces" env:"OTEL_STDOUT_TRACES" env-default:"false"`
}

// Load reads the YAML file at path, or only the environment when path is empty,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Game.GameType(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Game.Level(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (g Game) GameType() (game.GameType, error) {
	return game.ParseGameType(g.Type)
}

func (g Game) Level() (game.Difficulty, error) {
	return game.ParseDifficulty(g.Difficulty)
}

func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
