package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the macro status of a campaign session.
type SessionStatus string

const (
	StatusCreated   SessionStatus = "created"
	StatusStaging   SessionStatus = "staging"
	StatusExploring SessionStatus = "exploring"
	StatusEncounter SessionStatus = "encounter"
	StatusCombat    SessionStatus = "combat"
	StatusDowntime  SessionStatus = "downtime"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed" // Terminal
	StatusFailed    SessionStatus = "failed"    // Terminal
)

// Statuses lists every lifecycle state in declaration order.
var Statuses = []SessionStatus{
	StatusCreated,
	StatusStaging,
	StatusExploring,
	StatusEncounter,
	StatusCombat,
	StatusDowntime,
	StatusPaused,
	StatusCompleted,
	StatusFailed,
}

// IsTerminal reports whether no further transition can leave the status.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus accepts any casing of a status name.
func ParseStatus(raw string) (SessionStatus, error) {
	candidate := SessionStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// SessionEvent is an input to the session lifecycle.
type SessionEvent string

const (
	EventStart          SessionEvent = "start"
	EventPause          SessionEvent = "pause"
	EventResume         SessionEvent = "resume"
	EventEnd            SessionEvent = "end"
	EventEncounterStart SessionEvent = "encounter_start"
	EventEncounterEnd   SessionEvent = "encounter_end"
	EventCombatStart    SessionEvent = "combat_start"
	EventCombatEnd      SessionEvent = "combat_end"
	EventDowntimeStart  SessionEvent = "downtime_start"
	EventDowntimeEnd    SessionEvent = "downtime_end"
)

// Events lists every lifecycle event in declaration order.
var Events = []SessionEvent{
	EventStart,
	EventPause,
	EventResume,
	EventEnd,
	EventEncounterStart,
	EventEncounterEnd,
	EventCombatStart,
	EventCombatEnd,
	EventDowntimeStart,
	EventDowntimeEnd,
}

// ParseEvent accepts any casing of an event name, e.g. "COMBAT_START".
func ParseEvent(raw string) (SessionEvent, error) {
	candidate := SessionEvent(strings.ToLower(strings.TrimSpace(raw)))
	for _, e := range Events {
		if e == candidate {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, raw)
}

// SessionState represents the persisted snapshot of a campaign session.
type SessionState struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id,omitempty"`

	// Status only changes through a validated lifecycle transition.
	Status SessionStatus `json:"status"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is set exactly once, by the transition reaching a terminal state.
	EndedAt *time.Time `json:"ended_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates a session in the initial CREATED status.
func NewSessionState(id, campaignID string, now time.Time) *SessionState {
	return &SessionState{
		ID:         id,
		CampaignID: campaignID,
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a copy that shares no pointers with s.
func (s *SessionState) Clone() *SessionState {
	out := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}
