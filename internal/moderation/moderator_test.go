package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"badger", "snake"}, '*', log)
	req.NoError(err)
	req.NotNil(mod)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single word", input: "the badger is here", expected: "the ****** is here"},
		{name: "repeated word", input: "badger badger", expected: "****** ******"},
		{name: "case insensitive", input: "SNAKE!", expected: "*****!"},
		{name: "punctuation inside a word", input: "a b.a.d.g.e.r", expected: "a ***********"},
		{name: "multibyte text untouched", input: "un été calme", expected: "un été calme"},
		{name: "no match", input: "hello there", expected: "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestNewModerator_EmptyDictionaryDisables(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mod, err := NewModerator([]string{"", "  "}, '*', log)
	req.NoError(err)
	req.Nil(mod)
	req.Equal("anything", mod.Censor("anything"))
}
