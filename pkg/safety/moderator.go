package safety

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/aretw0/gamemaster/pkg/ports"
)

// BlockedText replaces content graded blocked.
const BlockedText = "[Content blocked for safety reasons]"

// Risk is scored in tenths. Above reviewRisk the text needs a human; above
// warnRisk it is softened.
const (
	reviewRisk = 7
	warnRisk   = 4
)

var contentRisk = map[ports.ContentType]int{
	ports.ContentNarration:         1,
	ports.ContentNPCDialogue:       2,
	ports.ContentPlayerInput:       3,
	ports.ContentCombatDescription: 4,
	ports.ContentLootDescription:   1,
	ports.ContentWorldDescription:  2,
}

var darkThemes = []string{"horror", "dark_fantasy", "grimdark"}

// PatternModerator grades text with regular expression rules and the
// campaign context. It is safe for concurrent use.
type PatternModerator struct {
	rules    compiled
	maxInput int
	logger   *slog.Logger
}

var _ ports.Moderator = (*PatternModerator)(nil)

// Option configures a PatternModerator.
type Option func(*PatternModerator)

func WithLogger(logger *slog.Logger) Option {
	return func(m *PatternModerator) { m.logger = logger }
}

// WithMaxInputSize bounds player input accepted by Moderate.
func WithMaxInputSize(n int) Option {
	return func(m *PatternModerator) { m.maxInput = n }
}

// NewPatternModerator compiles rules into a moderator.
func NewPatternModerator(rules Rules, opts ...Option) (*PatternModerator, error) {
	c, err := rules.compile()
	if err != nil {
		return nil, err
	}
	m := &PatternModerator{
		rules:    c,
		maxInput: DefaultMaxInputSize,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Moderate grades text. Player input is sanitized first and rejected when
// it is oversized or not valid UTF-8. An internal failure yields a review
// verdict instead of an error. Review verdicts carry no ModeratedText, so
// the middleware passes such text through unchanged and leaves the flag
// for a human to act on.
func (m *PatternModerator) Moderate(ctx context.Context, text string, ct ports.ContentType, mc ports.ModerationContext) (v ports.Verdict, err error) {
	if err := ctx.Err(); err != nil {
		return ports.Verdict{}, err
	}
	if ct == ports.ContentPlayerInput {
		if text, err = SanitizeInput(text, m.maxInput); err != nil {
			return ports.Verdict{}, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("moderation failed", "error", fault.New("safety.moderate", r))
			v, err = ports.Verdict{Level: ports.SafetyReview, Reason: "Error in moderation process"}, nil
		}
	}()

	v = combine(m.checkPatterns(text), checkContext(ct, mc))
	switch v.Level {
	case ports.SafetyBlocked:
		v.ModeratedText = BlockedText
	case ports.SafetyWarning:
		v.ModeratedText = m.soften(text)
	}

	if v.Level != ports.SafetySafe {
		m.logger.Warn("content flagged",
			"level", v.Level,
			"content_type", ct,
			"flagged", v.Flagged,
		)
	} else {
		m.logger.Debug("content checked", "content_type", ct)
	}
	return v, nil
}

func (m *PatternModerator) checkPatterns(text string) ports.Verdict {
	level := ports.SafetySafe
	flagged := collect(m.rules.blocked, text)
	if len(flagged) > 0 {
		level = ports.SafetyBlocked
	} else if flagged = collect(m.rules.warning, text); len(flagged) > 0 {
		level = ports.SafetyWarning
	}
	return ports.Verdict{
		Level:   level,
		Flagged: flagged,
		Reason:  fmt.Sprintf("Pattern matching found %d flagged terms", len(flagged)),
	}
}

func collect(patterns []*regexp.Regexp, text string) []string {
	var out []string
	for _, re := range patterns {
		for _, match := range re.FindAllString(text, -1) {
			match = strings.ToLower(match)
			if !slices.Contains(out, match) {
				out = append(out, match)
			}
		}
	}
	slices.Sort(out)
	return out
}

func checkContext(ct ports.ContentType, mc ports.ModerationContext) ports.Verdict {
	risk, ok := contentRisk[ct]
	if !ok {
		risk = 2
	}

	var reasons []string
	if mc.Rating == "mature" {
		risk += 3
		reasons = append(reasons, "Mature campaign setting")
	}
	if slices.Contains(darkThemes, mc.Theme) {
		risk += 2
		reasons = append(reasons, "Dark theme: "+mc.Theme)
	}
	if mc.Theme == "family_friendly" {
		risk -= 2
		reasons = append(reasons, "Family-friendly setting")
	}

	level := ports.SafetySafe
	switch {
	case risk > reviewRisk:
		level = ports.SafetyReview
	case risk > warnRisk:
		level = ports.SafetyWarning
	}

	reason := "No context concerns"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}
	return ports.Verdict{Level: level, Reason: "Context analysis: " + reason}
}

// combine lets blocked patterns win outright, otherwise the more severe
// verdict. Equal levels merge their reasons.
func combine(pattern, context ports.Verdict) ports.Verdict {
	switch {
	case pattern.Level == ports.SafetyBlocked:
		return pattern
	case pattern.Level.Severity() > context.Level.Severity():
		return pattern
	case context.Level.Severity() > pattern.Level.Severity():
		return context
	}
	return ports.Verdict{
		Level:   pattern.Level,
		Flagged: pattern.Flagged,
		Reason:  fmt.Sprintf("Pattern: %s; Context: %s", pattern.Reason, context.Reason),
	}
}

func (m *PatternModerator) soften(text string) string {
	for _, r := range m.rules.replacements {
		text = r.re.ReplaceAllLiteralString(text, r.with)
	}
	return text
}
