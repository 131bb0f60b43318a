// Package playfield implements the board: a fixed grid surrounded by permanent
// walls and a floor, with collision tests, piece placement and row clearing.
package playfield

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// Empty marks a free cell.
	Empty uint8 = 0
	// Border marks a wall or floor cell. Locked pieces use values below it.
	Border uint8 = 99

	DefaultRows = 23
	DefaultCols = 12

	// HiddenRows is the spawn buffer at the top of the board that renderers skip.
	HiddenRows = 2
)

var (
	ErrInvalidDimensions          = errors.New("grid needs at least 2 rows and 3 columns")
	ErrPlacementViolatesInvariant = errors.New("piece placed over an occupied or out of bounds cell")
)

// Shape is the piece geometry the grid reads. shape.Geometry implements it.
type Shape interface {
	Width() int
	Rotate(row, col, rot int) (uint8, error)
}

// Grid is the mutable board stored row-major. Column 0, the last column and the
// last row hold Border for the whole life of the grid.
// A Grid is not safe for concurrent use.
type Grid struct {
	rows  int
	cols  int
	cells []uint8
}

// New allocates a grid of the given outer size, borders included.
func New(rows, cols int) (*Grid, error) {
	if rows < 2 || cols < 3 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, rows, cols)
	}

	g := &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]uint8, rows*cols),
	}

	for row := 0; row < rows; row++ {
		g.cells[g.index(row, 0)] = Border
		g.cells[g.index(row, cols-1)] = Border
	}
	for col := 0; col < cols; col++ {
		g.cells[g.index(rows-1, col)] = Border
	}

	return g, nil
}

// NewDefault allocates a DefaultRows x DefaultCols grid.
func NewDefault() *Grid {
	g, _ := New(DefaultRows, DefaultCols)
	return g
}

func (g *Grid) Rows() int { return g.rows }

func (g *Grid) Cols() int { return g.cols }

// Cell returns the value at (row, col). Positions outside the grid read as Border.
func (g *Grid) Cell(row, col int) uint8 {
	if !g.inside(row, col) {
		return Border
	}
	return g.cells[g.index(row, col)]
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		rows:  g.rows,
		cols:  g.cols,
		cells: slices.Clone(g.cells),
	}
}

// Collides reports whether s, turned rot times and placed with its bounding box
// at (row, col), overlaps a non-empty cell or leaves the grid. Empty cells of the
// piece are never checked, so a box may hang outside the grid as long as its
// occupied cells do not.
func (g *Grid) Collides(s Shape, row, col, rot int) (bool, error) {
	w := s.Width()
	for i := 0; i < w*w; i++ {
		shapeRow, shapeCol := i/w, i%w

		v, err := s.Rotate(shapeRow, shapeCol, rot)
		if err != nil {
			return false, err
		}
		if v == Empty {
			continue
		}

		r, c := row+shapeRow, col+shapeCol
		if !g.inside(r, c) {
			return true, nil
		}
		if g.cells[g.index(r, c)] != Empty {
			return true, nil
		}
	}

	return false, nil
}

// Add writes the occupied cells of s into the grid and returns the rows it
// touched, ascending and without duplicates. The placement is checked first and
// ErrPlacementViolatesInvariant is returned, with the grid unchanged, when it
// collides.
func (g *Grid) Add(s Shape, row, col, rot int) ([]int, error) {
	collides, err := g.Collides(s, row, col, rot)
	if err != nil {
		return nil, err
	}
	if collides {
		return nil, fmt.Errorf("%w: at (%d, %d) rotation %d", ErrPlacementViolatesInvariant, row, col, rot)
	}

	var rows []int
	w := s.Width()
	for i := 0; i < w*w; i++ {
		shapeRow, shapeCol := i/w, i%w

		v, err := s.Rotate(shapeRow, shapeCol, rot)
		if err != nil {
			return nil, err
		}
		if v == Empty {
			continue
		}

		r := row + shapeRow
		g.cells[g.index(r, col+shapeCol)] = v
		if !slices.Contains(rows, r) {
			rows = append(rows, r)
		}
	}

	slices.Sort(rows)
	return rows, nil
}

// CheckRows returns the candidate rows whose interior cells are all occupied,
// in the order given. Border columns are not inspected and the floor is never
// reported.
func (g *Grid) CheckRows(rows []int) []int {
	full := make([]int, 0, len(rows))
	for _, row := range rows {
		if row < 0 || row >= g.rows-1 {
			continue
		}

		complete := true
		for col := 1; col < g.cols-1; col++ {
			if g.cells[g.index(row, col)] == Empty {
				complete = false
				break
			}
		}
		if complete {
			full = append(full, row)
		}
	}
	return full
}

// IsEmpty reports whether every interior cell of row is Empty.
func (g *Grid) IsEmpty(row int) bool {
	if row < 0 || row >= g.rows {
		return true
	}
	for col := 1; col < g.cols-1; col++ {
		if g.cells[g.index(row, col)] != Empty {
			return false
		}
	}
	return true
}

// ClearRows removes the given rows one at a time, lowest index first, moving
// everything above each of them down by one. Walls and floor are not moved.
func (g *Grid) ClearRows(rows []int) {
	pending := slices.Clone(rows)
	slices.Sort(pending)

	for _, cleared := range slices.Compact(pending) {
		if cleared < 0 || cleared >= g.rows-1 {
			continue
		}

		reachedTop := true
		for r := cleared - 1; r >= 0; r-- {
			g.copyRow(r, r+1)

			// Nothing non-empty can sit above an empty row once the lower
			// clears have been applied.
			if g.IsEmpty(r) {
				reachedTop = false
				break
			}
		}

		if reachedTop {
			g.clearRow(0)
		}
	}
}

// String renders the grid as text: '#' for Border, '.' for Empty and the piece
// value in base 36 for locked cells.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow(g.rows * (g.cols + 1))
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			switch v := g.cells[g.index(row, col)]; {
			case v == Border:
				sb.WriteByte('#')
			case v == Empty:
				sb.WriteByte('.')
			case v < 36:
				sb.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[v])
			default:
				sb.WriteByte('?')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Grid) copyRow(from, to int) {
	copy(g.cells[g.index(to, 1):g.index(to, g.cols-1)], g.cells[g.index(from, 1):g.index(from, g.cols-1)])
}

func (g *Grid) clearRow(row int) {
	clear(g.cells[g.index(row, 1):g.index(row, g.cols-1)])
}

func (g *Grid) inside(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

func (g *Grid) index(row, col int) int {
	return row*g.cols + col
}
