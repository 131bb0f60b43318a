// Package shape defines piece geometry, the rotation behaviour of each piece and the
// catalogs (rotation systems) that group seven pieces into a ruleset.
package shape

import (
	"fmt"
	"image/color"
	"slices"
)

// Variant selects how a piece responds to a rotation index.
type Variant uint8

const (
	// Free is a true four state quarter-turn rotation.
	Free Variant = iota
	// Restricted alternates between the unrotated matrix (0 and 2) and a single
	// quarter-turn (1 and 3), so clockwise and counter-clockwise look the same.
	Restricted
	// Fixed ignores the rotation index entirely.
	Fixed
)

// Rotations is the number of valid rotation indices, 0 through 3.
const Rotations = 4

func (v Variant) String() string {
	switch v {
	case Free:
		return "free"
	case Restricted:
		return "restricted"
	case Fixed:
		return "fixed"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// Geometry is an immutable piece definition stored in a square bounding box.
// Unused cells hold 0. The zero value is an empty piece of width 0.
type Geometry struct {
	name      string
	id        int
	matrix    []uint8
	width     int
	color     color.RGBA
	variant   Variant
	rowOffset int
}

// Block is one occupied cell of a rotated piece, relative to its bounding box.
type Block struct {
	Row   int
	Col   int
	Value uint8
}

// New validates and builds a Geometry. The matrix is copied.
func New(name string, matrix []uint8, width int, clr color.RGBA, variant Variant, rowOffset int) (Geometry, error) {
	if width <= 0 || len(matrix) != width*width {
		return Geometry{}, fmt.Errorf("%w: %q has %d cells for width %d", ErrMalformedGeometry, name, len(matrix), width)
	}
	if variant > Fixed {
		return Geometry{}, fmt.Errorf("%w: %q uses %s", ErrMalformedGeometry, name, variant)
	}
	if rowOffset < 0 {
		return Geometry{}, fmt.Errorf("%w: %q has negative row offset %d", ErrMalformedGeometry, name, rowOffset)
	}

	return Geometry{
		name:      name,
		matrix:    slices.Clone(matrix),
		width:     width,
		color:     clr,
		variant:   variant,
		rowOffset: rowOffset,
	}, nil
}

// Name returns the display name of the piece ("T", "I", ...).
func (g Geometry) Name() string { return g.name }

// ID returns the index of the piece in the catalog it was built for.
func (g Geometry) ID() int { return g.id }

// Width returns the side length of the bounding box.
func (g Geometry) Width() int { return g.width }

// Len returns the number of cells in the bounding box.
func (g Geometry) Len() int { return len(g.matrix) }

// Color returns the display color. It has no effect on gameplay.
func (g Geometry) Color() color.RGBA { return g.color }

// Variant returns the rotation behaviour of the piece.
func (g Geometry) Variant() Variant { return g.variant }

// RowOffset returns how many rows below row 0 the piece spawns.
func (g Geometry) RowOffset() int { return g.rowOffset }

// Row maps a cell index to its bounding box row.
func (g Geometry) Row(i int) int { return i / g.width }

// Col maps a cell index to its bounding box column.
func (g Geometry) Col(i int) int { return i % g.width }

// Clone returns a copy that shares no memory with g.
func (g Geometry) Clone() Geometry {
	g.matrix = slices.Clone(g.matrix)
	return g
}

// ValidRotation reports whether rot is one of 0, 1, 2 or 3.
func ValidRotation(rot int) bool {
	return rot >= 0 && rot < Rotations
}

// Rotate returns the value displayed at (row, col) when the piece is turned
// rot quarter-turns clockwise. The stored matrix is never modified.
func (g Geometry) Rotate(row, col, rot int) (uint8, error) {
	if !ValidRotation(rot) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRotation, rot)
	}
	if row < 0 || row >= g.width || col < 0 || col >= g.width {
		return 0, fmt.Errorf("%w: (%d, %d) in width %d", ErrCellOutOfRange, row, col, g.width)
	}

	switch g.variant {
	case Fixed:
		rot = 0
	case Restricted:
		if rot%2 == 0 {
			rot = 0
		} else {
			rot = 3
		}
	}

	w := g.width - 1
	var r, c int
	switch rot {
	case 0:
		r, c = row, col
	case 1:
		r, c = w-col, row
	case 2:
		r, c = w-row, w-col
	case 3:
		r, c = col, w-row
	}

	return g.matrix[r*g.width+c], nil
}

// Blocks lists the occupied cells of the piece at rotation rot in row-major order.
func (g Geometry) Blocks(rot int) ([]Block, error) {
	if !ValidRotation(rot) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, rot)
	}

	blocks := make([]Block, 0, 4)
	for i := range g.matrix {
		row, col := g.Row(i), g.Col(i)
		v, err := g.Rotate(row, col, rot)
		if err != nil {
			return nil, err
		}
		if v != 0 {
			blocks = append(blocks, Block{Row: row, Col: col, Value: v})
		}
	}
	return blocks, nil
}
