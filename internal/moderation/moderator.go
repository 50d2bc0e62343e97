// Package moderation masks configured words in chat message content.
package moderation

import (
	"log/slog"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator censors dictionary words rune for rune. Matching ignores case and
// punctuation placed inside a word, so "B.a.D" still matches "bad".
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

// folded is a searchable projection of a text. origin[i] is the index in the
// original runes of folded rune i.
type folded struct {
	runes  []rune
	origin []int
}

// NewModerator returns nil when words holds nothing to match, which callers
// treat as moderation disabled.
func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.FilterMap(words, func(word string, _ int) ([]rune, bool) {
		runes := fold(strings.TrimSpace(word)).runes
		return runes, len(runes) > 0
	})
	if len(patterns) == 0 {
		return nil, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(patterns))
	return &Moderator{matcher: m, replacement: replacement, log: log}, nil
}

// Censor returns content with every matched word masked. Text without matches
// is returned unchanged.
func (m *Moderator) Censor(content string) string {
	if m == nil {
		return content
	}
	f := fold(content)
	if len(f.runes) == 0 {
		return content
	}
	terms := m.matcher.MultiPatternSearch(f.runes, false)
	if len(terms) == 0 {
		return content
	}

	out := []rune(content)
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(f.origin) {
			continue
		}
		for i := f.origin[term.Pos]; i <= f.origin[end-1]; i++ {
			out[i] = m.replacement
		}
	}
	m.log.Debug("Censored message content", "matches", len(terms))
	return string(out)
}

func fold(text string) folded {
	runes := []rune(text)
	f := folded{runes: make([]rune, 0, len(runes)), origin: make([]int, 0, len(runes))}
	for i, r := range runes {
		if unicode.IsPunct(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.origin = append(f.origin, i)
	}
	return f
}
