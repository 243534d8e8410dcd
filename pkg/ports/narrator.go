package ports

import (
	"context"
	"iter"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
)

// NarrationKind selects what a narration request describes.
type NarrationKind string

const (
	NarrateScene      NarrationKind = "scene"
	NarrateAction     NarrationKind = "action"
	NarrateTransition NarrationKind = "transition"
	NarrateRecap      NarrationKind = "recap"
)

// NarrationRequest is the context handed to a Narrator.
type NarrationRequest struct {
	Kind      NarrationKind        `json:"kind"`
	SessionID string               `json:"session_id"`
	Status    domain.SessionStatus `json:"status,omitempty"`
	// Prompt is free text from the game master or the player.
	Prompt  string              `json:"prompt,omitempty"`
	Context map[string]string   `json:"context,omitempty"`
	Turns   []combat.TurnRecord `json:"turns,omitempty"`
}

// Narrator produces narration text. The engine treats it as opaque.
type Narrator interface {
	// Generate returns a finite, lazily produced sequence of text chunks.
	// A non-nil error ends the sequence.
	Generate(ctx context.Context, req NarrationRequest) iter.Seq2[string, error]
}
