// Package rsg provides random shape generators: sources of piece indices with
// one step of lookahead.
package rsg

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	ErrNoShapes      = errors.New("generator needs at least one shape")
	ErrEmptySequence = errors.New("sequence needs at least one index")
)

// Generator hands out piece indices. Peek returns the value the next Draw will
// return; Draw returns it and prepares a new one.
type Generator interface {
	Peek() int
	Draw() int
}

// Uniform draws every index independently and uniformly from [0, n).
// There is no bag or history: repeats are as likely as anything else.
type Uniform struct {
	rng  *rand.Rand
	n    int
	next int
}

// NewUniform creates a generator over n shapes using rng as its entropy source.
// Several generators may share rng as long as they are used from one goroutine.
func NewUniform(n int, rng *rand.Rand) (*Uniform, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNoShapes, n)
	}
	u := &Uniform{rng: rng, n: n}
	u.next = u.rng.IntN(n)
	return u, nil
}

// NewSeeded creates a generator over n shapes with its own PCG stream.
func NewSeeded(n int, seed uint64) (*Uniform, error) {
	return NewUniform(n, NewRand(seed))
}

// NewRand returns the PCG source used by NewSeeded for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TimeSeed derives a seed from the wall clock.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Len returns the number of shapes the generator draws from.
func (u *Uniform) Len() int { return u.n }

func (u *Uniform) Peek() int { return u.next }

func (u *Uniform) Draw() int {
	current := u.next
	u.next = u.rng.IntN(u.n)
	return current
}

// Sequence replays a fixed list of indices forever. It is meant for tests and
// scripted demos.
type Sequence struct {
	indices []int
	pos     int
}

// NewSequence returns a generator cycling through indices in order.
func NewSequence(indices ...int) (*Sequence, error) {
	if len(indices) == 0 {
		return nil, ErrEmptySequence
	}
	return &Sequence{indices: append([]int(nil), indices...)}, nil
}

func (s *Sequence) Peek() int { return s.indices[s.pos] }

func (s *Sequence) Draw() int {
	current := s.indices[s.pos]
	s.pos = (s.pos + 1) % len(s.indices)
	return current
}
