package shape

import (
	"fmt"
	"image/color"
	"strings"
)

// System identifies a ruleset: seven pieces plus their rotation behaviour.
type System uint8

const (
	// SRS is the modern ruleset: every piece but the square rotates freely and
	// spawns at the top of the board.
	SRS System = iota
	// NES is the classic ruleset: S, Z and I only toggle between two states and
	// pieces spawn one row down.
	NES
)

// Systems lists every built-in ruleset in switching order.
var Systems = []System{SRS, NES}

func (s System) String() string {
	switch s {
	case SRS:
		return "srs"
	case NES:
		return "nes"
	default:
		return fmt.Sprintf("system(%d)", uint8(s))
	}
}

// Name returns the human readable ruleset name.
func (s System) Name() string {
	switch s {
	case SRS:
		return "Super Rotation System"
	case NES:
		return "Nintendo Rotation System"
	default:
		return s.String()
	}
}

// Next returns the ruleset that follows s in Systems, wrapping around.
func (s System) Next() System {
	return Systems[(int(s)+1)%len(Systems)]
}

// ParseSystem accepts the String form of a ruleset, case-insensitively.
func ParseSystem(name string) (System, error) {
	for _, s := range Systems {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
}

type pieceDef struct {
	name      string
	pattern   []uint8
	width     int
	variant   Variant
	rowOffset int
}

// Piece order is shared by both rulesets: I, O, T, S, Z, J, L.
var srsPieces = []pieceDef{
	{"I", []uint8{
		0, 0, 0, 0,
		1, 1, 1, 1,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, 4, Free, 0},
	{"O", []uint8{
		0, 1, 1, 0,
		0, 1, 1, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, 4, Fixed, 0},
	{"T", []uint8{
		0, 1, 0,
		1, 1, 1,
		0, 0, 0,
	}, 3, Free, 0},
	{"S", []uint8{
		0, 1, 1,
		1, 1, 0,
		0, 0, 0,
	}, 3, Free, 0},
	{"Z", []uint8{
		1, 1, 0,
		0, 1, 1,
		0, 0, 0,
	}, 3, Free, 0},
	{"J", []uint8{
		1, 0, 0,
		1, 1, 1,
		0, 0, 0,
	}, 3, Free, 0},
	{"L", []uint8{
		0, 0, 1,
		1, 1, 1,
		0, 0, 0,
	}, 3, Free, 0},
}

// The I piece already carries its blank lead-in row, so it is the only piece
// without a spawn offset.
var nesPieces = []pieceDef{
	{"I", []uint8{
		0, 0, 0, 0,
		1, 1, 1, 1,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, 4, Restricted, 0},
	{"O", []uint8{
		0, 1, 1, 0,
		0, 1, 1, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, 4, Fixed, 1},
	{"T", []uint8{
		1, 1, 1,
		0, 1, 0,
		0, 0, 0,
	}, 3, Free, 1},
	{"S", []uint8{
		0, 1, 1,
		1, 1, 0,
		0, 0, 0,
	}, 3, Restricted, 1},
	{"Z", []uint8{
		1, 1, 0,
		0, 1, 1,
		0, 0, 0,
	}, 3, Restricted, 1},
	{"J", []uint8{
		1, 1, 1,
		0, 0, 1,
		0, 0, 0,
	}, 3, Free, 1},
	{"L", []uint8{
		1, 1, 1,
		1, 0, 0,
		0, 0, 0,
	}, 3, Free, 1},
}

var srsColors = []color.RGBA{
	{R: 102, G: 191, B: 255, A: 255}, // sky blue
	{R: 255, G: 203, B: 0, A: 255},   // gold
	{R: 135, G: 60, B: 190, A: 255},  // violet
	{R: 0, G: 158, B: 47, A: 255},    // lime
	{R: 230, G: 41, B: 55, A: 255},   // red
	{R: 0, G: 121, B: 241, A: 255},   // blue
	{R: 255, G: 161, B: 0, A: 255},   // orange
}

var nesColors = []color.RGBA{
	{R: 228, G: 228, B: 228, A: 255},
	{R: 252, G: 116, B: 96, A: 255},
	{R: 60, G: 188, B: 252, A: 255},
	{R: 0, G: 88, B: 248, A: 255},
	{R: 216, G: 40, B: 0, A: 255},
	{R: 104, G: 136, B: 252, A: 255},
	{R: 248, G: 56, B: 0, A: 255},
}

// Catalog builds the ordered piece list of a ruleset. Each call returns fresh
// geometries; piece k stores the value k+1 in its occupied cells.
func Catalog(sys System) ([]Geometry, error) {
	var defs []pieceDef
	var palette []color.RGBA
	switch sys {
	case SRS:
		defs, palette = srsPieces, srsColors
	case NES:
		defs, palette = nesPieces, nesColors
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSystem, sys)
	}

	shapes := make([]Geometry, 0, len(defs))
	for id, def := range defs {
		matrix := make([]uint8, len(def.pattern))
		for i, v := range def.pattern {
			matrix[i] = v * uint8(id+1)
		}

		g, err := New(def.name, matrix, def.width, palette[id], def.variant, def.rowOffset)
		if err != nil {
			return nil, fmt.Errorf("building %s catalog: %w", sys, err)
		}
		g.id = id
		shapes = append(shapes, g)
	}

	return shapes, nil
}
