// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the chatron service.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 16384
	defaultSendBufferSize  = 256
	defaultLogLevel        = "INFO"
	defaultCensorCharacter = '*'
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	SendBufferSize  int
	LogLevel        string
	CensoredWords   []string
	CensorCharacter rune
	ShutdownTimeout time.Duration
}

// environment mirrors Config in the shape the environment provides it.
type environment struct {
	Port            string        `env:"SERVER_PORT"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE"`
	LogLevel        string        `env:"LOG_LEVEL"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CensorCharacter string        `env:"CENSOR_CHARACTER"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		LogLevel:        defaultLogLevel,
		CensorCharacter: defaultCensorCharacter,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Sanitize replaces unusable values with defaults.
func (c Config) Sanitize() Config {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CensorCharacter == 0 {
		c.CensorCharacter = defaultCensorCharacter
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	c.CensoredWords = append([]string(nil), c.CensoredWords...)
	return c
}

// LoadConfig reads an optional dotenv file, then the process environment,
// falling back to defaults for anything unset. A missing envFile is only an
// error when required is true.
func LoadConfig(envFile string, required bool) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	var raw environment
	if _, err := env.UnmarshalFromEnviron(&raw); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return raw.apply(defaultConfig())
}

func (e environment) apply(cfg Config) (Config, error) {
	if e.Port != "" {
		cfg.Port = e.Port
	}
	if e.AllowedOrigins != "" {
		cfg.AllowedOrigins = parseList(e.AllowedOrigins)
	}
	if e.MaxMessageSize > 0 {
		cfg.MaxMessageSize = int64(e.MaxMessageSize)
	}
	if e.SendBufferSize > 0 {
		cfg.SendBufferSize = e.SendBufferSize
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.CensoredWords != "" {
		cfg.CensoredWords = parseList(e.CensoredWords)
	}
	if e.CensorCharacter != "" {
		r, err := characterRune(e.CensorCharacter)
		if err != nil {
			return Config{}, err
		}
		cfg.CensorCharacter = r
	}
	if e.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = e.ShutdownTimeout
	}
	return cfg.Sanitize(), nil
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
