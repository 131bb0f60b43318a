// Package game drives one match on top of the engine packages: it owns the
// active piece, turns player actions into collision-checked moves, and runs the
// lock, clear and spawn sequence when a piece lands.
package game

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/plus3/blocks/playfield"
	"github.com/plus3/blocks/rsg"
	"github.com/plus3/blocks/shape"
)

var ErrGameOver = errors.New("game is over")

// Piece is the active piece: a geometry copy and its position on the grid.
// Col may be negative when the bounding box has blank leading columns.
type Piece struct {
	Shape shape.Geometry
	Row   int
	Col   int
	Rot   int
}

// Session is a single match. It must be owned by one goroutine.
type Session struct {
	id      uuid.UUID
	grid    *playfield.Grid
	factory *shape.Factory
	logger  *log.Logger

	piece  Piece
	landed bool
	over   bool
	stats  *Stats
}

type sessionConfig struct {
	system    shape.System
	rows      int
	cols      int
	factory   []shape.FactoryOption
	logger    *log.Logger
	generator shape.GeneratorFunc
}

// Option configures NewSession.
type Option func(*sessionConfig)

// WithSystem selects the starting ruleset. The default is shape.SRS.
func WithSystem(sys shape.System) Option {
	return func(c *sessionConfig) { c.system = sys }
}

// WithSeed makes the piece sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(c *sessionConfig) { c.factory = append(c.factory, shape.WithSeed(seed)) }
}

// WithGenerator replaces the piece generator, for instance with an rsg.Sequence.
func WithGenerator(fn shape.GeneratorFunc) Option {
	return func(c *sessionConfig) { c.factory = append(c.factory, shape.WithGenerator(fn)) }
}

// WithScript is a shortcut for WithGenerator over a fixed, repeating piece order.
func WithScript(indices ...int) Option {
	return WithGenerator(func(int) (rsg.Generator, error) {
		return rsg.NewSequence(indices...)
	})
}

// WithGridSize overrides the board size, borders included.
func WithGridSize(rows, cols int) Option {
	return func(c *sessionConfig) { c.rows, c.cols = rows, cols }
}

// WithLogger sets the logger. Sessions are silent by default.
func WithLogger(logger *log.Logger) Option {
	return func(c *sessionConfig) { c.logger = logger }
}

// NewSession creates the grid and the factory and spawns the first piece.
func NewSession(opts ...Option) (*Session, error) {
	cfg := &sessionConfig{
		system: shape.SRS,
		rows:   playfield.DefaultRows,
		cols:   playfield.DefaultCols,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	grid, err := playfield.New(cfg.rows, cfg.cols)
	if err != nil {
		return nil, err
	}
	factory, err := shape.NewFactory(cfg.system, cfg.factory...)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	id := uuid.New()
	s := &Session{
		id:      id,
		grid:    grid,
		factory: factory,
		logger:  logger.With("session", id.String()),
		stats:   newStats(),
	}
	s.logger.Info("session started", "system", cfg.system, "rows", cfg.rows, "cols", cfg.cols)
	s.spawn()

	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Grid exposes the board for rendering. Callers must not mutate it.
func (s *Session) Grid() *playfield.Grid { return s.grid }

// Piece returns the active piece.
func (s *Session) Piece() Piece { return s.piece }

// Next returns the piece that will spawn after the active one locks.
func (s *Session) Next() shape.Geometry { return s.factory.Preview() }

// Shapes returns the catalog of the active ruleset.
func (s *Session) Shapes() []shape.Geometry { return s.factory.Shapes() }

// System returns the active ruleset.
func (s *Session) System() shape.System { return s.factory.System() }

// GameOver reports whether a spawned piece could not be placed.
func (s *Session) GameOver() bool { return s.over }

// Landed reports whether the active piece failed to fall on its last attempt.
func (s *Session) Landed() bool { return s.landed }

// Stats returns the running counters of the session.
func (s *Session) Stats() *Stats { return s.stats }

// MoveLeft shifts the piece one column left if the target is free.
func (s *Session) MoveLeft() bool {
	return s.try(s.piece.Row, s.piece.Col-1, s.piece.Rot)
}

// MoveRight shifts the piece one column right if the target is free.
func (s *Session) MoveRight() bool {
	return s.try(s.piece.Row, s.piece.Col+1, s.piece.Rot)
}

// RotateCW turns the piece a quarter clockwise if the target is free.
func (s *Session) RotateCW() bool {
	return s.try(s.piece.Row, s.piece.Col, (s.piece.Rot+1)%shape.Rotations)
}

// RotateCCW turns the piece a quarter counter-clockwise if the target is free.
func (s *Session) RotateCCW() bool {
	rot := s.piece.Rot - 1
	if rot < 0 {
		rot = shape.Rotations - 1
	}
	return s.try(s.piece.Row, s.piece.Col, rot)
}

// Fall moves the piece one row down. When the row below is blocked the piece is
// marked as landed and false is returned; locking is left to the caller.
func (s *Session) Fall() bool {
	if s.over {
		return false
	}
	if s.try(s.piece.Row+1, s.piece.Col, s.piece.Rot) {
		return true
	}
	s.landed = true
	return false
}

// HardDrop lets the piece fall as far as it can and locks it.
func (s *Session) HardDrop() ([]int, error) {
	if s.over {
		return nil, ErrGameOver
	}
	for s.Fall() {
	}
	return s.Lock()
}

// Lock commits the active piece to the grid, clears any rows it completed and
// spawns the next piece. The cleared rows are returned in ascending order.
func (s *Session) Lock() ([]int, error) {
	if s.over {
		return nil, ErrGameOver
	}

	p := s.piece
	rows, err := s.grid.Add(p.Shape, p.Row, p.Col, p.Rot)
	if err != nil {
		s.logger.Error("lock failed", "piece", p.Shape.Name(), "row", p.Row, "col", p.Col, "rot", p.Rot, "err", err)
		return nil, fmt.Errorf("lock %s: %w", p.Shape.Name(), err)
	}

	full := s.grid.CheckRows(rows)
	s.grid.ClearRows(full)
	s.stats.recordLock(len(full))
	s.logger.Debug("piece locked", "piece", p.Shape.Name(), "row", p.Row, "col", p.Col, "rot", p.Rot, "cleared", len(full))

	s.spawn()
	return full, nil
}

// SwitchSystem changes the ruleset. The active piece keeps its geometry; the
// next spawn comes from the new catalog.
func (s *Session) SwitchSystem(sys shape.System) error {
	if err := s.factory.Switch(sys); err != nil {
		return err
	}
	s.logger.Info("rotation system switched", "system", sys)
	return nil
}

func (s *Session) spawn() {
	next := s.factory.Current()
	s.piece = Piece{
		Shape: next,
		Row:   next.RowOffset(),
		Col:   s.grid.Cols()/2 - next.Width()/2,
		Rot:   0,
	}
	s.landed = false
	s.stats.recordSpawn(next.ID())

	if !s.fits(s.piece.Row, s.piece.Col, s.piece.Rot) {
		s.over = true
		s.logger.Info("game over", "piece", next.Name(), "locked", s.stats.Locked, "lines", s.stats.Lines)
		return
	}
	s.logger.Debug("piece spawned", "piece", next.Name(), "row", s.piece.Row, "col", s.piece.Col)
}

func (s *Session) try(row, col, rot int) bool {
	if s.over || !s.fits(row, col, rot) {
		return false
	}
	s.piece.Row, s.piece.Col, s.piece.Rot = row, col, rot
	s.landed = false
	return true
}

// fits treats engine errors as blocked positions. Rotation indices produced by
// the session are always valid, so an error here is logged as a bug.
func (s *Session) fits(row, col, rot int) bool {
	collides, err := s.grid.Collides(s.piece.Shape, row, col, rot)
	if err != nil {
		s.logger.Error("collision check failed", "row", row, "col", col, "rot", rot, "err", err)
		return false
	}
	return !collides
}
