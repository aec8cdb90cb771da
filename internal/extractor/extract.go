// Package extractor decodes artifact content and runs the registry's matchers
// over it, producing raw candidates with exact line and column positions.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
	"github.com/digimosa/gdpr-scan/internal/validators"
)

const (
	DefaultContextWindow = 40
	DefaultMaxBytes      = 10 << 20

	// ctxCheckEvery is how many lines are scanned between cancellation checks.
	ctxCheckEvery = 256
)

type Options struct {
	// ContextWindow is the number of bytes kept on each side of a match.
	ContextWindow int
	// MaxBytes is the artifact size above which scanning is skipped.
	MaxBytes int64
}

func (o Options) withDefaults() Options {
	if o.ContextWindow <= 0 {
		o.ContextWindow = DefaultContextWindow
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	return o
}

// Extractor is safe for concurrent use; it never mutates the registry.
type Extractor struct {
	rules   []rules.PatternRule
	opts    Options
	factory *Factory
}

// Extraction is the result of scanning one decoded artifact.
type Extraction struct {
	Candidates []models.RawCandidate
	// Lines holds the decoded text split into lines, for inline markers.
	Lines []string
	// Discarded counts tokens dropped by the entropy or length pre-filter.
	Discarded int
}

func New(reg *rules.Registry, opts Options) *Extractor {
	return &Extractor{
		rules:   reg.AllRules(),
		opts:    opts.withDefaults(),
		factory: NewFactory(),
	}
}

func (e *Extractor) MaxBytes() int64 { return e.opts.MaxBytes }

// CheckSize short-circuits oversized artifacts before they are read.
func (e *Extractor) CheckSize(path string, size int64) error {
	if size > e.opts.MaxBytes {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", models.ErrSkippedTooLarge, path, size, e.opts.MaxBytes)
	}
	return nil
}

// Decode turns raw artifact bytes into text. Binary content yields
// models.ErrDecode.
func (e *Extractor) Decode(path string, content []byte) (string, error) {
	if err := e.CheckSize(path, int64(len(content))); err != nil {
		return "", err
	}
	return e.factory.Decode(path, content)
}

// Extract runs every rule over every line of text.
func (e *Extractor) Extract(ctx context.Context, path, text string) (*Extraction, error) {
	lines := SplitLines(text)
	out := &Extraction{Lines: lines}

	for i, line := range lines {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if line == "" {
			continue
		}
		var lower string
		for _, r := range e.rules {
			if len(r.Keywords) > 0 {
				if lower == "" {
					lower = strings.ToLower(line)
				}
				if !containsAny(lower, r.Keywords) {
					continue
				}
			}
			e.matchLine(out, r, path, i+1, line)
		}
	}

	sort.SliceStable(out.Candidates, func(i, j int) bool {
		a, b := out.Candidates[i], out.Candidates[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Columns.Start != b.Columns.Start {
			return a.Columns.Start < b.Columns.Start
		}
		return a.RuleID < b.RuleID
	})
	log.Debugf("(extractor) %s: %d candidates, %d discarded", path, len(out.Candidates), out.Discarded)
	return out, nil
}

func (e *Extractor) matchLine(out *Extraction, r rules.PatternRule, path string, lineNo int, line string) {
	re := r.Matcher.Regexp()
	if re == nil {
		return
	}
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[2*r.SecretGroup], m[2*r.SecretGroup+1]
		if start < 0 || start == end {
			continue
		}
		token := line[start:end]

		var entropy float64
		if r.Category == models.CategorySecret || r.MinEntropy > 0 {
			entropy = validators.Entropy(token)
		}
		if r.MinEntropy > 0 && entropy < r.MinEntropy {
			out.Discarded++
			continue
		}
		if r.MinLength > 0 && len(token) < r.MinLength {
			out.Discarded++
			continue
		}

		ws, we := e.window(line, start, end)
		raw := line[ws:we]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		out.Candidates = append(out.Candidates, models.RawCandidate{
			RuleID:         r.ID,
			FilePath:       path,
			Line:           lineNo,
			Columns:        models.ColumnRange{Start: start + 1, End: end + 1},
			MatchedText:    token,
			ContextSnippet: strings.TrimSpace(raw),
			Entropy:        entropy,
			ContextBefore:  line[ws:start],
			ContextAfter:   line[end:we],
			SnippetStart:   ws + lead + 1,
		})
	}
}

// window returns the snippet bounds around [start, end), aligned to rune
// boundaries.
func (e *Extractor) window(line string, start, end int) (int, int) {
	ws := start - e.opts.ContextWindow
	if ws < 0 {
		ws = 0
	}
	for ws < start && !utf8.RuneStart(line[ws]) {
		ws++
	}
	we := end + e.opts.ContextWindow
	if we > len(line) {
		we = len(line)
	}
	for we > end && we < len(line) && !utf8.RuneStart(line[we]) {
		we--
	}
	return ws, we
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
