package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Input is the subset of ebiten input state the viewer reads each tick.
type Input interface {
	CursorPosition() (x, y int)
	Wheel() (dx, dy float64)
	MouseJustPressed() bool
	MouseJustReleased() bool
	KeyJustPressed(k ebiten.Key) bool
}

type ebitenInput struct{}

func (ebitenInput) CursorPosition() (int, int) { return ebiten.CursorPosition() }
func (ebitenInput) Wheel() (float64, float64)  { return ebiten.Wheel() }

func (ebitenInput) MouseJustPressed() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

func (ebitenInput) MouseJustReleased() bool {
	return inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
}

func (ebitenInput) KeyJustPressed(k ebiten.Key) bool { return inpututil.IsKeyJustPressed(k) }
