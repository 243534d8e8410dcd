package safety

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/ports"
)

// LogMiddleware allows wrapping a CombatLog to add behavior.
type LogMiddleware func(ports.CombatLog) ports.CombatLog

// ModerateLog returns a middleware that moderates the free text of every
// turn before it is appended. The action description is graded as player
// input and result descriptions as combat descriptions.
func ModerateLog(mod ports.Moderator, mc ports.ModerationContext) LogMiddleware {
	return func(next ports.CombatLog) ports.CombatLog {
		return &moderatedLog{next: next, mod: mod, mc: mc}
	}
}

type moderatedLog struct {
	next ports.CombatLog
	mod  ports.Moderator
	mc   ports.ModerationContext
}

func (l *moderatedLog) Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	// Copy so the caller's record keeps its original text.
	rec.Results = slices.Clone(rec.Results)

	var err error
	if rec.Action.Description, err = l.moderate(ctx, rec.Action.Description, ports.ContentPlayerInput); err != nil {
		return err
	}
	for i := range rec.Results {
		if rec.Results[i].Description, err = l.moderate(ctx, rec.Results[i].Description, ports.ContentCombatDescription); err != nil {
			return err
		}
	}
	return l.next.Append(ctx, sessionID, rec)
}

func (l *moderatedLog) moderate(ctx context.Context, text string, ct ports.ContentType) (string, error) {
	if text == "" {
		return text, nil
	}
	v, err := l.mod.Moderate(ctx, text, ct, l.mc)
	if err != nil {
		return "", err
	}
	if v.ModeratedText != "" {
		return v.ModeratedText, nil
	}
	return text, nil
}

func (l *moderatedLog) List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	return l.next.List(ctx, sessionID)
}

func (l *moderatedLog) Clear(ctx context.Context, sessionID string) error {
	return l.next.Clear(ctx, sessionID)
}

// ModerateNarration wraps a Narrator so its complete output is moderated
// before any of it is released. The moderated text is then re-streamed word
// by word.
func ModerateNarration(next ports.Narrator, mod ports.Moderator, mc ports.ModerationContext) ports.Narrator {
	return &moderatedNarrator{next: next, mod: mod, mc: mc}
}

type moderatedNarrator struct {
	next ports.Narrator
	mod  ports.Moderator
	mc   ports.ModerationContext
}

func (n *moderatedNarrator) Generate(ctx context.Context, req ports.NarrationRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var b strings.Builder
		for chunk, err := range n.next.Generate(ctx, req) {
			if err != nil {
				yield("", err)
				return
			}
			b.WriteString(chunk)
		}

		text := b.String()
		v, err := n.mod.Moderate(ctx, text, ports.ContentNarration, n.mc)
		if err != nil {
			yield("", err)
			return
		}
		if v.ModeratedText != "" {
			text = v.ModeratedText
		}

		for word := range strings.SplitAfterSeq(text, " ") {
			if word != "" && !yield(word, nil) {
				return
			}
		}
	}
}
