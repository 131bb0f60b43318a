package main

import (
	"math"
	"math/rand/v2"

	"github.com/plus3/blocks/game"
	"github.com/plus3/blocks/playfield"
	"github.com/plus3/blocks/shape"
)

// Placement weights of the usual height/holes/bumpiness heuristic.
const (
	weightLines     = 0.76
	weightHeight    = -0.51
	weightHoles     = -0.36
	weightBumpiness = -0.18
)

// After this many frames without the piece moving the bot drops where it is.
const stuckFrames = 3

type target struct {
	rot int
	col int
}

// bot plays by pressing one control per frame: it picks a placement when a piece
// spawns, rotates, walks to the column and hard drops.
type bot struct {
	session  *game.Session
	controls *game.Controls
	rng      *rand.Rand
	noise    float64

	spawned int
	target  target
	turns   int
	last    game.Piece
	stuck   int
}

func newBot(session *game.Session, controls *game.Controls, rng *rand.Rand, noise float64) *bot {
	return &bot{
		session:  session,
		controls: controls,
		rng:      rng,
		noise:    noise,
		spawned:  -1,
	}
}

func (b *bot) Update() {
	if b.session.GameOver() {
		return
	}

	p := b.session.Piece()
	if spawned := b.session.Stats().Spawned; spawned != b.spawned {
		b.spawned = spawned
		b.target = b.choose(p)
		b.turns = 0
		b.stuck = 0
	} else if p.Row == b.last.Row && p.Col == b.last.Col && p.Rot == b.last.Rot {
		b.stuck++
	} else {
		b.stuck = 0
	}
	b.last = p

	switch {
	case b.stuck >= stuckFrames:
		b.controls.Press(game.HardDrop)
	case p.Rot != b.target.rot && b.turns < shape.Rotations:
		b.turns++
		b.controls.Press(game.RotateCW)
	case p.Col > b.target.col:
		b.controls.Press(game.MoveLeft)
	case p.Col < b.target.col:
		b.controls.Press(game.MoveRight)
	default:
		b.controls.Press(game.HardDrop)
	}
}

// choose scores every rotation and column reachable from the spawn row.
func (b *bot) choose(p game.Piece) target {
	grid := b.session.Grid()
	best := target{rot: p.Rot, col: p.Col}
	bestScore := math.Inf(-1)

	for rot := 0; rot < shape.Rotations; rot++ {
		for col := -p.Shape.Width(); col < grid.Cols(); col++ {
			if collides(grid, p.Shape, p.Row, col, rot) {
				continue
			}
			row := p.Row
			for !collides(grid, p.Shape, row+1, col, rot) {
				row++
			}

			trial := grid.Clone()
			rows, err := trial.Add(p.Shape, row, col, rot)
			if err != nil {
				continue
			}
			full := trial.CheckRows(rows)
			trial.ClearRows(full)

			score := evaluate(trial, len(full)) + b.noise*b.rng.NormFloat64()
			if score > bestScore {
				bestScore = score
				best = target{rot: rot, col: col}
			}
		}
	}

	return best
}

func collides(grid *playfield.Grid, s shape.Geometry, row, col, rot int) bool {
	hit, err := grid.Collides(s, row, col, rot)
	return err != nil || hit
}

func evaluate(grid *playfield.Grid, lines int) float64 {
	floor := grid.Rows() - 1
	var height, holes, bumpiness int
	prev := -1

	for col := 1; col < grid.Cols()-1; col++ {
		colHeight := 0
		for row := 0; row < floor; row++ {
			if grid.Cell(row, col) == playfield.Empty {
				if colHeight > 0 {
					holes++
				}
				continue
			}
			if colHeight == 0 {
				colHeight = floor - row
			}
		}

		height += colHeight
		if prev >= 0 {
			bumpiness += abs(colHeight - prev)
		}
		prev = colHeight
	}

	return weightLines*float64(lines) +
		weightHeight*float64(height) +
		weightHoles*float64(holes) +
		weightBumpiness*float64(bumpiness)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
