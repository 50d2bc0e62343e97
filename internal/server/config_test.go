package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewConfigDefaults verifies the built-in defaults.
func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	require.Equal(t, ":8080", cfg.Port)
	require.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	require.Equal(t, int64(16384), cfg.MaxMessageSize)
	require.Equal(t, 256, cfg.SendBufferSize)
	require.Equal(t, "INFO", cfg.LogLevel)
	require.Equal(t, '*', cfg.CensorCharacter)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Empty(t, cfg.CensoredWords)
}

// TestSanitizeRestoresDefaults verifies zero values are replaced and slices
// are copied rather than shared.
func TestSanitizeRestoresDefaults(t *testing.T) {
	origins := []string{"http://example.com"}
	cfg := Config{AllowedOrigins: origins, SendBufferSize: -1}.Sanitize()

	require.Equal(t, defaultPort, cfg.Port)
	require.Equal(t, int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	require.Equal(t, defaultSendBufferSize, cfg.SendBufferSize)
	require.Equal(t, defaultLogLevel, cfg.LogLevel)
	require.Equal(t, defaultCensorCharacter, cfg.CensorCharacter)
	require.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)

	cfg.AllowedOrigins[0] = "changed"
	require.Equal(t, "http://example.com", origins[0])
}

// TestLoadConfigFromEnvironment verifies every variable is read and parsed.
func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("SEND_BUFFER_SIZE", "8")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CENSORED_WORDS", "badger,ferret")
	t.Setenv("CENSOR_CHARACTER", "#")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := LoadConfig("", false)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Port)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	require.Equal(t, int64(2048), cfg.MaxMessageSize)
	require.Equal(t, 8, cfg.SendBufferSize)
	require.Equal(t, "DEBUG", cfg.LogLevel)
	require.Equal(t, []string{"badger", "ferret"}, cfg.CensoredWords)
	require.Equal(t, '#', cfg.CensorCharacter)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

// TestLoadConfigFromEnvFile verifies dotenv values are loaded without
// overriding variables already present in the environment.
func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SERVER_PORT=:7070\nLOG_LEVEL=WARN\nCENSORED_WORDS=weasel\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LOG_LEVEL", "ERROR")
	// Registered so t.Setenv restores the unset state after godotenv sets them.
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CENSORED_WORDS", "")
	require.NoError(t, os.Unsetenv("SERVER_PORT"))
	require.NoError(t, os.Unsetenv("CENSORED_WORDS"))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	require.Equal(t, ":7070", cfg.Port)
	require.Equal(t, "ERROR", cfg.LogLevel)
	require.Equal(t, []string{"weasel"}, cfg.CensoredWords)
}

// TestLoadConfigMissingEnvFile verifies a missing dotenv file is only fatal
// when it was explicitly requested.
func TestLoadConfigMissingEnvFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.env")

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	require.Equal(t, defaultPort, cfg.Port)

	_, err = LoadConfig(missing, true)
	require.Error(t, err)
}

// TestLoadConfigRejectsLongCensorCharacter verifies CENSOR_CHARACTER must be
// exactly one character.
func TestLoadConfigRejectsLongCensorCharacter(t *testing.T) {
	t.Setenv("CENSOR_CHARACTER", "**")

	_, err := LoadConfig("", false)
	require.ErrorContains(t, err, "CENSOR_CHARACTER")
}

func TestParseList(t *testing.T) {
	require.Equal(t, []string{}, parseList(" , ,"))
	require.Equal(t, []string{"a", "b c"}, parseList("a, b c ,"))
}

func TestCharacterRune(t *testing.T) {
	r, err := characterRune("é")
	require.NoError(t, err)
	require.Equal(t, 'é', r)

	_, err = characterRune("")
	require.Error(t, err)
}
