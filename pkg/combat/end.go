package combat

import "github.com/aretw0/gamemaster/pkg/fault"

// SideTally counts one side's participants.
type SideTally struct {
	Conscious int `json:"conscious"`
	Total     int `json:"total"`
}

// EndCheck is the outcome of CheckCombatEnd.
type EndCheck struct {
	CombatShouldEnd bool `json:"combat_should_end"`
	// Winner is nil when combat continues or when no side is left standing.
	Winner *string              `json:"winner"`
	Reason string               `json:"reason,omitempty"`
	Sides  map[string]SideTally `json:"sides"`
}

// CheckCombatEnd reports whether at most one side still has conscious members.
func (e *Engine) CheckCombatEnd(participants []Participant) (out EndCheck, err error) {
	defer fault.Recover("combat.check_combat_end", &err)
	return checkCombatEnd(participants), nil
}

func checkCombatEnd(participants []Participant) EndCheck {
	sides := make(map[string]SideTally)
	for _, p := range participants {
		tally := sides[p.Team()]
		tally.Total++
		if p.Conscious() {
			tally.Conscious++
		}
		sides[p.Team()] = tally
	}

	var standing []string
	for side, tally := range sides {
		if tally.Conscious > 0 {
			standing = append(standing, side)
		}
	}

	out := EndCheck{Sides: sides}
	switch len(standing) {
	case 0:
		out.CombatShouldEnd = true
		out.Reason = "no side has conscious participants"
	case 1:
		out.CombatShouldEnd = true
		out.Winner = &standing[0]
		out.Reason = "only one side has conscious participants"
	}
	return out
}
