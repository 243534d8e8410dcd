package ports

import "context"

// SafetyLevel grades moderated content.
type SafetyLevel string

const (
	SafetySafe    SafetyLevel = "safe"
	SafetyWarning SafetyLevel = "warning"
	SafetyBlocked SafetyLevel = "blocked"
	SafetyReview  SafetyLevel = "review"
)

// Severity orders levels from safe to blocked.
func (l SafetyLevel) Severity() int {
	switch l {
	case SafetyWarning:
		return 1
	case SafetyReview:
		return 2
	case SafetyBlocked:
		return 3
	default:
		return 0
	}
}

// ContentType names where a piece of text comes from.
type ContentType string

const (
	ContentNarration         ContentType = "narration"
	ContentNPCDialogue       ContentType = "npc_dialogue"
	ContentPlayerInput       ContentType = "player_input"
	ContentCombatDescription ContentType = "combat_description"
	ContentLootDescription   ContentType = "loot_description"
	ContentWorldDescription  ContentType = "world_description"
)

// ModerationContext describes the campaign the text belongs to.
type ModerationContext struct {
	// Rating is e.g. "mature" or "general".
	Rating string `json:"campaign_rating,omitempty" yaml:"campaign_rating"`
	// Theme is e.g. "horror", "grimdark" or "family_friendly".
	Theme string `json:"theme,omitempty" yaml:"theme"`
}

// Verdict is the outcome of moderation.
type Verdict struct {
	Level   SafetyLevel `json:"level"`
	Flagged []string    `json:"flagged,omitempty"`
	Reason  string      `json:"reason"`
	// ModeratedText is set when the text had to be rewritten or withheld.
	ModeratedText string `json:"moderated_text,omitempty"`
}

// Moderator screens text before it is shown to players.
type Moderator interface {
	Moderate(ctx context.Context, text string, contentType ContentType, mc ModerationContext) (Verdict, error)
}
