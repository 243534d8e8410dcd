package dice

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniform random integers in [0, n).
type Source interface {
	Intn(n int) int
}

type globalSource struct{}

func (globalSource) Intn(n int) int { return rand.IntN(n) }

// DefaultSource returns the process-wide source. It is safe for concurrent use.
func DefaultSource() Source { return globalSource{} }

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a reproducible source. Two sources built from the
// same seed produce the same sequence.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// ScriptedSource replays a fixed list of die faces. It panics once the script
// is exhausted or when a face does not fit the requested die.
type ScriptedSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewScriptedSource returns a source that yields the given faces (1-based) in order.
func NewScriptedSource(faces ...int) *ScriptedSource {
	return &ScriptedSource{faces: faces}
}

func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.faces) {
		panic("scripted source exhausted")
	}
	face := s.faces[s.next]
	s.next++
	if face < 1 || face > n {
		panic("scripted face out of range")
	}
	return face - 1
}

// Remaining reports how many scripted faces have not been consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) - s.next
}
