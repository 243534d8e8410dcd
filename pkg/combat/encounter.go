package combat

// Encounter tracks turn progression through an initiative order.
// It is not safe for concurrent use.
type Encounter struct {
	Order []InitiativeEntry `json:"order"`
	Round int               `json:"round"`
	// Turn is the 1-based position in Order of the current actor, 0 before the first turn.
	Turn int `json:"turn"`
}

// NewEncounter starts tracking order, which is expected sorted by TurnOrder.
func NewEncounter(order []InitiativeEntry) *Encounter {
	return &Encounter{Order: order}
}

// Current returns the entry whose turn it is.
func (e *Encounter) Current() (InitiativeEntry, bool) {
	if e.Turn < 1 || e.Turn > len(e.Order) {
		return InitiativeEntry{}, false
	}
	return e.Order[e.Turn-1], true
}

// Peek returns the next conscious participant and the round and turn it
// would act at, without advancing. It returns false when nobody is conscious.
func (e *Encounter) Peek() (entry InitiativeEntry, round, turn int, ok bool) {
	if !e.anyConscious() {
		return InitiativeEntry{}, 0, 0, false
	}
	round, turn = max(e.Round, 1), e.Turn
	for {
		turn++
		if turn > len(e.Order) {
			turn = 1
			round++
		}
		if entry = e.Order[turn-1]; entry.Participant.Conscious() {
			return entry, round, turn, true
		}
	}
}

// Next advances to the next conscious participant, starting a new round when
// the order wraps. It returns false, without advancing, when nobody is conscious.
func (e *Encounter) Next() (InitiativeEntry, bool) {
	entry, round, turn, ok := e.Peek()
	if !ok {
		return InitiativeEntry{}, false
	}
	e.Round, e.Turn = round, turn
	return entry, true
}

func (e *Encounter) anyConscious() bool {
	for _, entry := range e.Order {
		if entry.Participant.Conscious() {
			return true
		}
	}
	return false
}

// Participants returns the participants in turn order.
func (e *Encounter) Participants() []Participant {
	out := make([]Participant, len(e.Order))
	for i, entry := range e.Order {
		out[i] = entry.Participant
	}
	return out
}

// Participant looks a participant up by ID.
func (e *Encounter) Participant(id string) (Participant, bool) {
	for _, entry := range e.Order {
		if entry.Participant.ID == id {
			return entry.Participant, true
		}
	}
	return Participant{}, false
}

// Stamp sets rec's round and turn to the encounter's current position.
func (e *Encounter) Stamp(rec *TurnRecord) {
	rec.Round = e.Round
	rec.Turn = e.Turn
}

// Apply subtracts the damage of every hit in rec from its target.
func (e *Encounter) Apply(rec TurnRecord) {
	for _, res := range rec.Results {
		if res.Attack == nil || !res.Attack.Hit {
			continue
		}
		for i := range e.Order {
			if e.Order[i].Participant.ID == res.Attack.TargetID {
				e.Order[i].Participant = ApplyDamage(e.Order[i].Participant, res.Attack.Damage)
			}
		}
	}
}

// Check runs CheckCombatEnd over the encounter's participants.
func (e *Encounter) Check() EndCheck {
	return checkCombatEnd(e.Participants())
}
