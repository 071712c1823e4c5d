// Package prompt assembles ranked memories and tone summaries into a
// token-bounded context block for a language model.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/tone"
)

const (
	DefaultHeader = "## Relevant memories"
	toneHeader    = "## Tone"
)

var sectionTemplate = template.Must(template.New("context").Parse(
	`{{.Header}}
{{range .Entries}}- {{.}}
{{end}}{{with .Profile}}{{.}}
{{end}}{{if .Tones}}` + toneHeader + `
{{range .Tones}}- {{.}}
{{end}}{{end}}`))

type section struct {
	Header  string
	Entries []string
	Profile string
	Tones   []string
}

type Option func(*Builder)

// WithHeader replaces the section header.
func WithHeader(header string) Option {
	return func(b *Builder) {
		b.header = header
	}
}

// WithRecency annotates each bullet with the minutes since the memory was
// created, relative to now.
func WithRecency(now time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithProfile adds a one-line description of the user after the memories.
func WithProfile(summary string) Option {
	return func(b *Builder) {
		b.profile = oneLine(summary)
	}
}

// Builder formats context sections. A Builder is immutable once created and
// safe for concurrent use.
type Builder struct {
	header  string
	now     time.Time
	profile string
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{header: DefaultHeader}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders ranked (already sorted by descending score) and tones into a
// section whose token count under tok never exceeds budget.
//
// Entries are taken in order until the next bullet would not fit; no line is
// truncated and none is skipped. The profile line and the tone section are
// added only when they fit after the entries. If even the header does not
// fit the result is "". A nil tok counts whitespace-separated words.
func (b *Builder) Build(ranked []memory.Result, tones []tone.WindowSummary, budget int, tok memory.Tokenizer) (string, error) {
	if budget < 0 {
		return "", core.Validationf("Builder.Build", "token budget must be >= 0, got %d", budget)
	}
	if tok == nil {
		tok = memory.WhitespaceTokenizer
	}

	used := tok.CountTokens(b.header)
	if used > budget {
		return "", nil
	}

	s := section{Header: b.header}
	for _, r := range ranked {
		line := b.entryLine(r.Entry)
		cost := tok.CountTokens("- " + line)
		if used+cost > budget {
			break
		}
		used += cost
		s.Entries = append(s.Entries, line)
	}

	if b.profile != "" {
		if cost := tok.CountTokens(b.profile); used+cost <= budget {
			used += cost
			s.Profile = b.profile
		}
	}

	if len(tones) > 0 {
		lines := make([]string, len(tones))
		cost := tok.CountTokens(toneHeader)
		for i, w := range tones {
			lines[i] = toneLine(w)
			cost += tok.CountTokens("- " + lines[i])
		}
		if used+cost <= budget {
			s.Tones = lines
		}
	}

	// Line costs need not add up exactly under every tokenizer; shed the
	// optional parts and then trailing entries until the whole text fits.
	for {
		out, err := render(s)
		if err != nil {
			return "", err
		}
		if tok.CountTokens(out) <= budget {
			return out, nil
		}
		switch {
		case len(s.Tones) > 0:
			s.Tones = nil
		case s.Profile != "":
			s.Profile = ""
		case len(s.Entries) > 0:
			s.Entries = s.Entries[:len(s.Entries)-1]
		default:
			return "", nil
		}
	}
}

func render(s section) (string, error) {
	var sb strings.Builder
	if err := sectionTemplate.Execute(&sb, s); err != nil {
		return "", fmt.Errorf("render context: %w", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Builder) entryLine(e memory.Entry) string {
	text := oneLine(e.Text)
	if b.now.IsZero() {
		return text
	}
	return fmt.Sprintf("%s (%d min ago)", text, int(e.Age(b.now)/time.Minute))
}

func toneLine(w tone.WindowSummary) string {
	t := core.Tone{Valence: w.Valence, Arousal: w.Arousal}
	return fmt.Sprintf("%s: %s (%d samples)", w.Label, t, w.Samples)
}

// oneLine collapses runs of whitespace, newlines included, to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
