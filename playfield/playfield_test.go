package playfield_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/blocks/playfield"
	"github.com/plus3/blocks/shape"
)

func mustShape(t testing.TB, width int, cells ...uint8) shape.Geometry {
	t.Helper()
	g, err := shape.New("test", cells, width, color.RGBA{}, shape.Free, 0)
	require.NoError(t, err)
	return g
}

// wide builds a 10 wide piece from the given rows, one grid interior wide.
func wide(t testing.TB, rows ...[]uint8) shape.Geometry {
	t.Helper()
	cells := make([]uint8, 100)
	for i, row := range rows {
		copy(cells[i*10:], row)
	}
	return mustShape(t, 10, cells...)
}

var (
	full   = []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	holed  = []uint8{0, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	hollow = []uint8{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
)

func assertRow(t *testing.T, g *playfield.Grid, row int, want ...uint8) {
	t.Helper()
	got := make([]uint8, 0, g.Cols()-2)
	for col := 1; col < g.Cols()-1; col++ {
		got = append(got, g.Cell(row, col))
	}
	assert.Equal(t, want, got, "row %d", row)
}

func assertRowEmpty(t *testing.T, g *playfield.Grid, row int) {
	t.Helper()
	assert.True(t, g.IsEmpty(row), "row %d should be empty", row)
}

func TestNew(t *testing.T) {
	t.Run("default size and borders", func(t *testing.T) {
		g := playfield.NewDefault()
		assert.Equal(t, 23, g.Rows())
		assert.Equal(t, 12, g.Cols())

		for row := 0; row < g.Rows(); row++ {
			for col := 0; col < g.Cols(); col++ {
				if row == g.Rows()-1 || col == 0 || col == g.Cols()-1 {
					assert.Equal(t, playfield.Border, g.Cell(row, col), "(%d, %d)", row, col)
				} else {
					assert.Equal(t, playfield.Empty, g.Cell(row, col), "(%d, %d)", row, col)
				}
			}
		}
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		_, err := playfield.New(1, 12)
		assert.ErrorIs(t, err, playfield.ErrInvalidDimensions)

		_, err = playfield.New(23, 2)
		assert.ErrorIs(t, err, playfield.ErrInvalidDimensions)

		g, err := playfield.New(2, 3)
		require.NoError(t, err)
		assert.Equal(t, playfield.Empty, g.Cell(0, 1))
	})

	t.Run("outside reads as border", func(t *testing.T) {
		g := playfield.NewDefault()
		assert.Equal(t, playfield.Border, g.Cell(-1, 5))
		assert.Equal(t, playfield.Border, g.Cell(23, 5))
		assert.Equal(t, playfield.Border, g.Cell(5, -1))
		assert.Equal(t, playfield.Border, g.Cell(5, 12))
	})
}

func TestAdd(t *testing.T) {
	square := mustShape(t, 4,
		0, 1, 1, 0,
		0, 1, 1, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	)

	t.Run("writes occupied cells only", func(t *testing.T) {
		g := playfield.NewDefault()

		rows, err := g.Add(square, 0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, rows)

		assert.Equal(t, uint8(1), g.Cell(0, 1))
		assert.Equal(t, uint8(1), g.Cell(0, 2))
		assert.Equal(t, uint8(1), g.Cell(1, 1))
		assert.Equal(t, uint8(1), g.Cell(1, 2))
		assert.Equal(t, playfield.Border, g.Cell(0, 0))
		assert.Equal(t, playfield.Border, g.Cell(1, 0))
		assert.Equal(t, playfield.Empty, g.Cell(0, 3))
		assert.Equal(t, playfield.Empty, g.Cell(1, 3))
		assert.Equal(t, playfield.Border, g.Cell(2, 0))
		assert.Equal(t, playfield.Empty, g.Cell(2, 1))
		assert.Equal(t, playfield.Empty, g.Cell(2, 2))
	})

	t.Run("blank leading columns allow a negative column", func(t *testing.T) {
		g := playfield.NewDefault()
		bar := mustShape(t, 4,
			0, 0, 1, 0,
			0, 0, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)

		rows, err := g.Add(bar, 0, -1, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, rows)
		assert.Equal(t, playfield.Border, g.Cell(0, 0))
		assert.Equal(t, uint8(1), g.Cell(0, 1))
		assert.Equal(t, uint8(1), g.Cell(1, 1))
		assert.Equal(t, playfield.Empty, g.Cell(0, 2))
	})

	t.Run("rejects placements over the border", func(t *testing.T) {
		g := playfield.NewDefault()
		before := g.String()
		wideBlock := mustShape(t, 4,
			1, 1, 1, 0,
			1, 1, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)

		rows, err := g.Add(wideBlock, 0, 0, 0)
		assert.ErrorIs(t, err, playfield.ErrPlacementViolatesInvariant)
		assert.Nil(t, rows)
		assert.Equal(t, before, g.String())
	})

	t.Run("rejects placements over locked cells", func(t *testing.T) {
		g := playfield.NewDefault()
		_, err := g.Add(square, 10, 2, 0)
		require.NoError(t, err)
		before := g.String()

		_, err = g.Add(square, 11, 2, 0)
		assert.ErrorIs(t, err, playfield.ErrPlacementViolatesInvariant)
		assert.Equal(t, before, g.String())
	})

	t.Run("rows are sorted and unique", func(t *testing.T) {
		g := playfield.NewDefault()
		vertical := mustShape(t, 4,
			0, 0, 1, 0,
			0, 0, 1, 0,
			0, 0, 1, 0,
			0, 0, 1, 0,
		)

		rows, err := g.Add(vertical, 5, 3, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{5, 6, 7, 8}, rows)

		// A quarter turn lays the bar on bounding box row 2.
		rows, err = g.Add(vertical, 10, 3, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{12}, rows)
	})

	t.Run("invalid rotation", func(t *testing.T) {
		g := playfield.NewDefault()
		_, err := g.Add(square, 0, 1, 4)
		assert.ErrorIs(t, err, shape.ErrInvalidRotation)
	})
}

func TestCollides(t *testing.T) {
	collides := func(t *testing.T, g *playfield.Grid, s shape.Geometry, row, col, rot int) bool {
		t.Helper()
		hit, err := g.Collides(s, row, col, rot)
		require.NoError(t, err)
		return hit
	}

	t.Run("against locked cells", func(t *testing.T) {
		g := playfield.NewDefault()
		square := mustShape(t, 4,
			0, 1, 1, 0,
			0, 1, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)
		_, err := g.Add(square, 0, 0, 0)
		require.NoError(t, err)

		assert.True(t, collides(t, g, square, 0, 0, 0))
		assert.True(t, collides(t, g, square, 0, 1, 0))
		assert.True(t, collides(t, g, square, 1, 0, 0))
		assert.True(t, collides(t, g, square, 1, 1, 0))

		assert.False(t, collides(t, g, square, 0, 2, 0))
		assert.False(t, collides(t, g, square, 1, 2, 0))
		assert.False(t, collides(t, g, square, 2, 0, 0))
		assert.False(t, collides(t, g, square, 2, 1, 0))
	})

	t.Run("against borders", func(t *testing.T) {
		g := playfield.NewDefault()
		block := mustShape(t, 4,
			1, 1, 1, 0,
			1, 1, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)

		for row := 0; row < g.Rows(); row++ {
			assert.True(t, collides(t, g, block, row, 0, 0), "row %d", row)
			assert.True(t, collides(t, g, block, row, 9, 0), "row %d", row)
			assert.True(t, collides(t, g, block, row, 10, 0), "row %d", row)
			assert.True(t, collides(t, g, block, row, 11, 0), "row %d", row)
			assert.True(t, collides(t, g, block, row, 10, 1), "row %d", row)
		}
		for col := 0; col < g.Cols(); col++ {
			assert.True(t, collides(t, g, block, 21, col, 0), "col %d", col)
			assert.True(t, collides(t, g, block, 22, col, 0), "col %d", col)
		}
		for row := 0; row < g.Rows()-2; row++ {
			for col := 1; col < g.Cols()-3; col++ {
				assert.False(t, collides(t, g, block, row, col, 0), "(%d, %d)", row, col)
			}
		}
	})

	t.Run("out of the grid on the left", func(t *testing.T) {
		g := playfield.NewDefault()
		square := mustShape(t, 4,
			0, 1, 1, 0,
			0, 1, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)
		for row := 0; row < g.Rows(); row++ {
			assert.True(t, collides(t, g, square, row, -1, 0), "row %d", row)
		}
	})

	t.Run("rotation pushes blocks out of the grid", func(t *testing.T) {
		g := playfield.NewDefault()
		third := mustShape(t, 4,
			0, 0, 1, 0,
			0, 0, 1, 0,
			0, 0, 1, 0,
			0, 0, 1, 0,
		)
		second := mustShape(t, 4,
			0, 1, 0, 0,
			0, 1, 0, 0,
			0, 1, 0, 0,
			0, 1, 0, 0,
		)

		for row := 0; row < g.Rows(); row++ {
			assert.True(t, collides(t, g, third, row, -1, 1), "row %d", row)
			assert.True(t, collides(t, g, second, row, 0, 1), "row %d", row)
			assert.True(t, collides(t, g, second, row, -1, 1), "row %d", row)
			assert.True(t, collides(t, g, third, row, 10, 1), "row %d", row)
			assert.True(t, collides(t, g, third, row, 11, 1), "row %d", row)
			assert.True(t, collides(t, g, third, row, 12, 1), "row %d", row)
		}
	})

	t.Run("blank columns may hang outside", func(t *testing.T) {
		g := playfield.NewDefault()
		bar := mustShape(t, 3,
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
		)
		assert.False(t, collides(t, g, bar, 0, -1, 0))
		assert.True(t, collides(t, g, bar, 0, -2, 0))
	})

	t.Run("above the top counts as a collision", func(t *testing.T) {
		g := playfield.NewDefault()
		square := mustShape(t, 2, 1, 1, 1, 1)
		assert.True(t, collides(t, g, square, -1, 1, 0))
		assert.False(t, collides(t, g, square, 0, 1, 0))

		lowered := mustShape(t, 3,
			0, 0, 0,
			1, 1, 0,
			1, 1, 0,
		)
		assert.False(t, collides(t, g, lowered, -1, 1, 0))
	})

	t.Run("invalid rotation", func(t *testing.T) {
		g := playfield.NewDefault()
		square := mustShape(t, 2, 1, 1, 1, 1)
		_, err := g.Collides(square, 0, 1, -1)
		assert.ErrorIs(t, err, shape.ErrInvalidRotation)
	})
}

func TestCheckRows(t *testing.T) {
	t.Run("rows fill up", func(t *testing.T) {
		g := playfield.NewDefault()
		block := mustShape(t, 4,
			1, 1, 1, 0,
			1, 1, 1, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		)

		_, err := g.Add(block, 0, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, g.CheckRows([]int{0}))
		assert.Empty(t, g.CheckRows([]int{1}))
		assert.Empty(t, g.CheckRows([]int{0, 1}))

		_, err = g.Add(block, 0, 4, 0)
		require.NoError(t, err)
		assert.Empty(t, g.CheckRows([]int{0, 1}))

		_, err = g.Add(block, 0, 5, 1)
		require.NoError(t, err)
		assert.Empty(t, g.CheckRows([]int{0, 1}))

		_, err = g.Add(block, 0, 7, 1)
		require.NoError(t, err)

		assert.Equal(t, []int{0}, g.CheckRows([]int{0}))
		assert.Equal(t, []int{1}, g.CheckRows([]int{1}))
		assert.Equal(t, []int{0, 1}, g.CheckRows([]int{0, 1}))
		assert.Empty(t, g.CheckRows([]int{2}))
	})

	t.Run("one hole keeps the row", func(t *testing.T) {
		g := playfield.NewDefault()
		_, err := g.Add(wide(t, holed), 21, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, g.CheckRows([]int{21}))

		g = playfield.NewDefault()
		_, err = g.Add(wide(t, full), 21, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{21}, g.CheckRows([]int{21}))
	})

	t.Run("floor and out of range rows are skipped", func(t *testing.T) {
		g := playfield.NewDefault()
		assert.Empty(t, g.CheckRows([]int{22}))
		assert.Empty(t, g.CheckRows([]int{-1, 23, 100}))
	})
}

func TestIsEmpty(t *testing.T) {
	g := playfield.NewDefault()
	for row := 0; row < 4; row++ {
		assert.True(t, g.IsEmpty(row))
	}

	block := mustShape(t, 4,
		1, 1, 1, 1,
		1, 1, 1, 1,
		0, 0, 0, 0,
		0, 0, 0, 0,
	)
	_, err := g.Add(block, 0, 1, 0)
	require.NoError(t, err)

	assert.False(t, g.IsEmpty(0))
	assert.False(t, g.IsEmpty(1))
	assert.True(t, g.IsEmpty(2))
	assert.True(t, g.IsEmpty(3))

	assert.False(t, g.IsEmpty(g.Rows()-1), "floor is never empty")
	assert.True(t, g.IsEmpty(-1))
	assert.True(t, g.IsEmpty(g.Rows()))
}

func TestClearRows(t *testing.T) {
	add := func(t *testing.T, g *playfield.Grid, s shape.Geometry, row int) {
		t.Helper()
		_, err := g.Add(s, row, 1, 0)
		require.NoError(t, err)
	}

	t.Run("four full rows", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, full, full, full, full), 18)

		g.ClearRows([]int{18, 19, 20, 21})
		for row := 18; row <= 21; row++ {
			assertRowEmpty(t, g, row)
		}
	})

	t.Run("garbage above two full rows", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, hollow, full, full), 19)

		g.ClearRows([]int{20, 21})
		assertRowEmpty(t, g, 19)
		assertRowEmpty(t, g, 20)
		assertRow(t, g, 21, hollow...)
	})

	t.Run("garbage between cleared rows", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, full, full, holed, full), 18)

		g.ClearRows([]int{18, 19, 21})
		assertRowEmpty(t, g, 18)
		assertRowEmpty(t, g, 19)
		assertRowEmpty(t, g, 20)
		assertRow(t, g, 21, holed...)
	})

	t.Run("alternating rows", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, holed, full, holed, full), 18)

		g.ClearRows([]int{19, 21})
		assertRowEmpty(t, g, 18)
		assertRowEmpty(t, g, 19)
		assertRow(t, g, 20, holed...)
		assertRow(t, g, 21, holed...)
	})

	t.Run("consecutive garbage rows", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, full, holed, holed, full), 18)

		g.ClearRows([]int{18, 21})
		assertRowEmpty(t, g, 18)
		assertRowEmpty(t, g, 19)
		assertRow(t, g, 20, holed...)
		assertRow(t, g, 21, holed...)
	})

	t.Run("one row under a stack", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, holed, holed, holed, full), 18)

		g.ClearRows([]int{21})
		assertRowEmpty(t, g, 18)
		assertRow(t, g, 19, holed...)
		assertRow(t, g, 20, holed...)
		assertRow(t, g, 21, holed...)
	})

	t.Run("unsorted input with duplicates", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, hollow, full, full), 19)

		rows := []int{21, 20, 21}
		g.ClearRows(rows)
		assertRowEmpty(t, g, 19)
		assertRowEmpty(t, g, 20)
		assertRow(t, g, 21, hollow...)
		assert.Equal(t, []int{21, 20, 21}, rows, "input must not be reordered")
	})

	t.Run("floor and out of range rows are ignored", func(t *testing.T) {
		g := playfield.NewDefault()
		add(t, g, wide(t, hollow), 21)
		before := g.String()

		g.ClearRows([]int{-1, 22, 40})
		assert.Equal(t, before, g.String())
	})

	t.Run("stack reaching the top", func(t *testing.T) {
		g, err := playfield.New(6, 5)
		require.NoError(t, err)
		dot := mustShape(t, 1, 3)
		for row := 0; row < 4; row++ {
			_, err := g.Add(dot, row, 1+row%3, 0)
			require.NoError(t, err)
		}
		for col := 1; col <= 3; col++ {
			_, err := g.Add(dot, 4, col, 0)
			require.NoError(t, err)
		}
		require.Equal(t, []int{4}, g.CheckRows([]int{4}))

		g.ClearRows([]int{4})
		assert.Equal(t, ""+
			"#...#\n"+
			"#3..#\n"+
			"#.3.#\n"+
			"#..3#\n"+
			"#3..#\n"+
			"#####\n", g.String())
	})
}

func TestClone(t *testing.T) {
	g := playfield.NewDefault()
	dot := mustShape(t, 1, 5)

	clone := g.Clone()
	_, err := clone.Add(dot, 3, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, playfield.Empty, g.Cell(3, 3))
	assert.Equal(t, uint8(5), clone.Cell(3, 3))
}

func TestString(t *testing.T) {
	g, err := playfield.New(4, 4)
	require.NoError(t, err)
	_, err = g.Add(mustShape(t, 1, 7), 1, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, "#..#\n#7.#\n#..#\n####\n", g.String())
}

func BenchmarkCollides(b *testing.B) {
	g := playfield.NewDefault()
	shapes, err := shape.Catalog(shape.SRS)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := shapes[i%len(shapes)]
		_, _ = g.Collides(s, 10, 4, i%shape.Rotations)
	}
}

func BenchmarkAddClear(b *testing.B) {
	row := wide(b, full)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g := playfield.NewDefault()
		for r := 18; r < 22; r++ {
			_, _ = g.Add(row, r, 1, 0)
		}
		g.ClearRows(g.CheckRows([]int{18, 19, 20, 21}))
	}
}
