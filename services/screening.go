package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"terrainhub/rules"
)

// ContentScreener rejects user text before it is stored. A rejection is a
// rules.ErrValidation.
type ContentScreener interface {
	Screen(ctx context.Context, text string) error
}

// DefaultBannedWords is the French and English vocabulary refused in comments.
var DefaultBannedWords = []string{
	"connard", "connasse", "salope", "enculé", "pute", "merde", "nique",
	"fuck", "shit", "bitch", "asshole", "bastard",
	"porn", "porno", "scam", "phishing",
}

// PatternScreener refuses banned words, links and contact details.
type PatternScreener struct {
	bannedWords []*regexp.Regexp
	url         *regexp.Regexp
	email       *regexp.Regexp
	phone       *regexp.Regexp
}

const maxRepeatedRune = 5

func NewPatternScreener(extraWords []string) *PatternScreener {
	words := append(append([]string{}, DefaultBannedWords...), extraWords...)
	ps := &PatternScreener{
		url:   regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		email: regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phone: regexp.MustCompile(`(?:\+33\s?|0)[1-9](?:[\s.-]?\d{2}){4}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		// \b does not understand accented letters, so word edges are spelled out.
		re, err := regexp.Compile(`(?i)(^|[^\pL])` + regexp.QuoteMeta(w) + `($|[^\pL])`)
		if err == nil {
			ps.bannedWords = append(ps.bannedWords, re)
		}
	}
	return ps
}

func (ps *PatternScreener) Screen(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	for _, re := range ps.bannedWords {
		if re.MatchString(text) {
			return fmt.Errorf("%w: inappropriate language", rules.ErrValidation)
		}
	}
	if ps.url.MatchString(text) {
		return fmt.Errorf("%w: links are not allowed", rules.ErrValidation)
	}
	if ps.email.MatchString(text) || ps.phone.MatchString(text) {
		return fmt.Errorf("%w: contact information is not allowed", rules.ErrValidation)
	}
	if hasLongRun(text, maxRepeatedRune) {
		return fmt.Errorf("%w: content looks like spam", rules.ErrValidation)
	}
	return nil
}

// hasLongRun reports whether some rune repeats more than limit times in a row.
func hasLongRun(text string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range strings.ToLower(text) {
		if r == prev && !unicode.IsSpace(r) && !unicode.IsDigit(r) {
			run++
			if run > limit {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

const screeningPrompt = `You moderate a French community site about pétanque courts.
Decide whether the following user text is acceptable. Refuse insults, harassment,
hate speech, sexual content and advertising. Ordinary criticism of a court is fine.
Answer with JSON only: {"allowed": true|false, "reason": "short reason"}.

Text:
%s`

type screeningVerdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// AIScreener asks a language model for a verdict. Model failures let the
// text through so an outage never blocks posting.
type AIScreener struct {
	gen TextGenerator
}

func NewAIScreener(gen TextGenerator) *AIScreener {
	return &AIScreener{gen: gen}
}

func (s *AIScreener) Screen(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	out, err := s.gen.Generate(ctx, fmt.Sprintf(screeningPrompt, text))
	if err != nil {
		slog.Warn("ai screening unavailable", "error", err)
		return nil
	}
	var v screeningVerdict
	if err := json.Unmarshal([]byte(cleanModelOutput(out)), &v); err != nil {
		slog.Warn("ai screening returned unparsable verdict", "output", out)
		return nil
	}
	if !v.Allowed {
		reason := v.Reason
		if reason == "" {
			reason = "content refused by moderation"
		}
		return fmt.Errorf("%w: %s", rules.ErrValidation, reason)
	}
	return nil
}

// ScreenChain runs screeners in order and stops at the first rejection.
type ScreenChain []ContentScreener

func (c ScreenChain) Screen(ctx context.Context, text string) error {
	for _, s := range c {
		if s == nil {
			continue
		}
		if err := s.Screen(ctx, text); err != nil {
			return err
		}
	}
	return nil
}
