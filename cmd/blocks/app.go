package main

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plus3/blocks/game"
	"github.com/plus3/blocks/loop"
	"github.com/plus3/blocks/playfield"
	"github.com/plus3/blocks/shape"
)

var (
	background  = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	borderColor = color.RGBA{R: 130, G: 130, B: 130, A: 255}
	emptyColor  = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// app is the ebiten.Game: it polls input into Controls, steps the scheduler once
// per tick and draws whatever the session holds.
type app struct {
	session   *game.Session
	controls  *game.Controls
	scheduler *loop.Scheduler
	logger    *log.Logger

	// Catalog view: every piece of the ruleset drawn at demoRot.
	showCatalog bool
	demoRot     int

	width  int
	height int
	touches []ebiten.TouchID
}

func newApp(session *game.Session, timing game.Timing, logger *log.Logger) *app {
	controls := &game.Controls{}
	return &app{
		session:   session,
		controls:  controls,
		scheduler: game.NewScheduler(session, controls, timing),
		logger:    logger,
	}
}

func (a *app) Update() error {
	if a.session.GameOver() {
		return ebiten.Termination
	}

	a.controls.Hold(game.MoveLeft, ebiten.IsKeyPressed(ebiten.KeyArrowLeft))
	a.controls.Hold(game.MoveRight, ebiten.IsKeyPressed(ebiten.KeyArrowRight))
	a.controls.Hold(game.SoftDrop, ebiten.IsKeyPressed(ebiten.KeyArrowDown))

	if inpututil.IsKeyJustPressed(ebiten.KeyD) || inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		a.controls.Press(game.RotateCW)
		a.demoRot = (a.demoRot + 1) % shape.Rotations
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.controls.Press(game.RotateCCW)
		a.demoRot = (a.demoRot + shape.Rotations - 1) % shape.Rotations
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.controls.Press(game.HardDrop)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.showCatalog = !a.showCatalog
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if err := a.session.SwitchSystem(a.session.System().Next()); err != nil {
			a.logger.Error("switching rotation system", "err", err)
		}
	}

	// Touch: right half rotates clockwise, left half counter-clockwise.
	a.touches = inpututil.AppendJustPressedTouchIDs(a.touches[:0])
	for _, id := range a.touches {
		x, _ := ebiten.TouchPosition(id)
		if x > a.width/2 {
			a.controls.Press(game.RotateCW)
		} else {
			a.controls.Press(game.RotateCCW)
		}
	}

	a.scheduler.Once(1 / float64(ebiten.TPS()))
	return nil
}

func (a *app) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	grid := a.session.Grid()
	shapes := a.session.Shapes()
	visible := grid.Rows() - playfield.HiddenRows
	block := float32(min(a.width/(grid.Cols()+6), a.height/(visible+1)))
	originX := block
	originY := block / 2

	if a.showCatalog {
		a.drawCatalog(screen, shapes, block)
	} else {
		for row := playfield.HiddenRows; row < grid.Rows(); row++ {
			for col := 0; col < grid.Cols(); col++ {
				x := originX + float32(col)*block
				y := originY + float32(row-playfield.HiddenRows)*block
				vector.DrawFilledRect(screen, x, y, block-1, block-1, cellColor(shapes, grid.Cell(row, col)), false)
			}
		}

		p := a.session.Piece()
		a.drawShape(screen, p.Shape, p.Rot, originX+float32(p.Col)*block, originY+float32(p.Row-playfield.HiddenRows)*block, block, playfield.HiddenRows-p.Row)

		previewX := originX + float32(grid.Cols()+1)*block
		ebitenutil.DebugPrintAt(screen, "NEXT", int(previewX), int(originY))
		a.drawShape(screen, a.session.Next(), 0, previewX, originY+block, block, 0)
	}

	stats := a.session.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %0.2f  %s  lines: %d", ebiten.ActualFPS(), a.session.System().Name(), stats.Lines))
}

// drawShape draws the occupied cells of s at rot, skipping the first skipRows
// rows of its bounding box (cells still inside the hidden rows).
func (a *app) drawShape(screen *ebiten.Image, s shape.Geometry, rot int, x, y, block float32, skipRows int) {
	blocks, err := s.Blocks(rot)
	if err != nil {
		a.logger.Error("drawing piece", "piece", s.Name(), "err", err)
		return
	}
	for _, b := range blocks {
		if b.Row < skipRows {
			continue
		}
		vector.DrawFilledRect(screen, x+float32(b.Col)*block, y+float32(b.Row)*block, block-1, block-1, s.Color(), false)
	}
}

func (a *app) drawCatalog(screen *ebiten.Image, shapes []shape.Geometry, block float32) {
	ebitenutil.DebugPrintAt(screen, a.session.System().Name(), int(block), int(block))

	x, y := block, 3*block
	for _, s := range shapes {
		if x+block*5 >= float32(a.width) {
			x = block
			y += block * 5
		}
		a.drawShape(screen, s, a.demoRot, x, y, block, 0)
		x += block * 5
	}
}

// cellColor maps a locked cell back to the color of the piece that left it.
func cellColor(shapes []shape.Geometry, v uint8) color.Color {
	switch v {
	case playfield.Empty:
		return emptyColor
	case playfield.Border:
		return borderColor
	}
	if id := int(v) - 1; id < len(shapes) {
		return shapes[id].Color()
	}
	return borderColor
}

func (a *app) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.width, a.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
