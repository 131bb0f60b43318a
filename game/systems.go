package game

import (
	"fmt"
	"time"

	"github.com/plus3/blocks/loop"
)

// Action is a player command.
type Action uint8

const (
	MoveLeft Action = iota
	MoveRight
	SoftDrop
	RotateCW
	RotateCCW
	HardDrop
	actionCount
)

func (a Action) String() string {
	switch a {
	case MoveLeft:
		return "move-left"
	case MoveRight:
		return "move-right"
	case SoftDrop:
		return "soft-drop"
	case RotateCW:
		return "rotate-cw"
	case RotateCCW:
		return "rotate-ccw"
	case HardDrop:
		return "hard-drop"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Timing holds the pacing of automatic moves.
type Timing struct {
	// DropDelay is the gravity interval.
	DropDelay time.Duration
	// ShiftDelay is the repeat interval of a held left or right.
	ShiftDelay time.Duration
	// QuickDropDelay is the repeat interval of a held soft drop.
	QuickDropDelay time.Duration
}

// DefaultTiming returns the classic arcade pacing.
func DefaultTiming() Timing {
	return Timing{
		DropDelay:      800 * time.Millisecond,
		ShiftDelay:     100 * time.Millisecond,
		QuickDropDelay: 50 * time.Millisecond,
	}
}

// Controls is the input state for the next frame. The presentation layer fills it
// from its keyboard or touch polling; InputSystem consumes it.
type Controls struct {
	held     [actionCount]bool
	released bool
	pressed  []Action
}

// Hold records whether a repeatable action (left, right, soft drop) is held down.
func (c *Controls) Hold(a Action, down bool) {
	if a >= actionCount {
		return
	}
	if c.held[a] && !down {
		c.released = true
	}
	c.held[a] = down
}

// Press queues a single action for the next frame.
func (c *Controls) Press(a Action) {
	c.pressed = append(c.pressed, a)
}

// Held reports whether a is currently held.
func (c *Controls) Held(a Action) bool {
	return a < actionCount && c.held[a]
}

func (c *Controls) drain() []Action {
	pressed := c.pressed
	c.pressed = nil
	return pressed
}

// InputSystem applies Controls to a session. Held moves act on the first frame
// and then repeat at the Timing intervals; every release restarts that cycle.
type InputSystem struct {
	Session  *Session
	Controls *Controls
	Gravity  *GravitySystem
	Timing   Timing

	elapsed   float64
	repeating bool
}

func (s *InputSystem) Execute(frame *loop.Frame) {
	if s.Session.GameOver() {
		s.Controls.drain()
		return
	}

	s.elapsed += frame.DeltaTime
	if s.Controls.released {
		s.Controls.released = false
		s.repeating = false
	}

	for _, a := range s.Controls.drain() {
		switch a {
		case MoveLeft:
			s.Session.MoveLeft()
		case MoveRight:
			s.Session.MoveRight()
		case SoftDrop:
			s.softDrop(frame)
		case RotateCW:
			s.Session.RotateCW()
		case RotateCCW:
			s.Session.RotateCCW()
		case HardDrop:
			frame.Commands.Defer(s.Session.hardDropDeferred)
		}
	}

	shift := s.Timing.ShiftDelay.Seconds()
	if s.Controls.Held(MoveLeft) && s.ready(shift) && s.Session.MoveLeft() {
		s.moved()
	}
	if s.Controls.Held(MoveRight) && s.ready(shift) && s.Session.MoveRight() {
		s.moved()
	}
	if s.Controls.Held(SoftDrop) && s.ready(s.Timing.QuickDropDelay.Seconds()) {
		if s.softDrop(frame) {
			s.moved()
		}
	}
}

func (s *InputSystem) ready(delay float64) bool {
	return !s.repeating || s.elapsed >= delay
}

func (s *InputSystem) moved() {
	s.repeating = true
	s.elapsed = 0
}

// softDrop falls one row and restarts gravity, or queues the lock when the piece
// is resting on something.
func (s *InputSystem) softDrop(frame *loop.Frame) bool {
	if s.Session.Fall() {
		if s.Gravity != nil {
			s.Gravity.Reset()
		}
		return true
	}
	frame.Commands.Defer(s.Session.lockIfLanded)
	return false
}

// GravitySystem moves the active piece down once per DropDelay and queues the
// lock when it cannot fall any further.
type GravitySystem struct {
	Session   *Session
	DropDelay time.Duration

	elapsed  float64
	lastSeen int
}

// Reset restarts the gravity interval.
func (g *GravitySystem) Reset() {
	g.elapsed = 0
}

func (g *GravitySystem) Execute(frame *loop.Frame) {
	if g.Session.GameOver() {
		return
	}

	if spawned := g.Session.Stats().Spawned; spawned != g.lastSeen {
		g.lastSeen = spawned
		g.elapsed = 0
	}

	g.elapsed += frame.DeltaTime
	if g.elapsed < g.DropDelay.Seconds() {
		return
	}
	g.elapsed = 0

	if !g.Session.Fall() {
		frame.Commands.Defer(g.Session.lockIfLanded)
	}
}

// NewScheduler wires input and gravity for a session, in that order, so a
// piece moved by the player this frame falls from its new position.
func NewScheduler(session *Session, controls *Controls, timing Timing) *loop.Scheduler {
	gravity := &GravitySystem{
		Session:   session,
		DropDelay: timing.DropDelay,
		lastSeen:  session.Stats().Spawned,
	}

	scheduler := loop.NewScheduler()
	scheduler.Register(&InputSystem{
		Session:  session,
		Controls: controls,
		Gravity:  gravity,
		Timing:   timing,
	})
	scheduler.Register(gravity)
	return scheduler
}

// lockIfLanded runs at the end of a frame. Several systems may queue it for the
// same piece; only the first call locks.
func (s *Session) lockIfLanded() {
	if !s.landed || s.over {
		return
	}
	if _, err := s.Lock(); err != nil {
		s.logger.Error("deferred lock", "err", err)
	}
}

func (s *Session) hardDropDeferred() {
	if s.over {
		return
	}
	if _, err := s.HardDrop(); err != nil {
		s.logger.Error("hard drop", "err", err)
	}
}
