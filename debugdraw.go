package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/common"
	"github.com/milk9111/roller/sim"
)

const (
	basePixelsPerUnit = 48.0
	minPixelsPerUnit  = 6.0
	cameraSmooth      = 0.15
)

// spaceDrawer renders engine shapes with a smoothed camera that follows
// the katamari and zooms out as it grows. World Y points up, screen Y
// points down.
type spaceDrawer struct {
	screen  *ebiten.Image
	screenW int
	screenH int

	camX, camY float64
	ppu        float64

	kataShape *cp.Shape
}

func newSpaceDrawer(screenW, screenH int) *spaceDrawer {
	return &spaceDrawer{
		screenW: screenW,
		screenH: screenH,
		camY:    4,
		ppu:     basePixelsPerUnit,
	}
}

// SnapTo centers the camera immediately, for level loads.
func (d *spaceDrawer) SnapTo(target cp.Vector) {
	d.camX = target.X
	d.camY = target.Y
}

// Follow recenters toward the target and rescales so the ball never
// fills more than about a sixth of the view.
func (d *spaceDrawer) Follow(target cp.Vector, radius float64) {
	d.camX = common.Lerp(d.camX, target.X, cameraSmooth)
	d.camY = common.Lerp(d.camY, target.Y, cameraSmooth)

	want := basePixelsPerUnit
	if radius > 0 {
		if fit := float64(d.screenH) / 6.0 / radius; fit < want {
			want = fit
		}
	}
	if want < minPixelsPerUnit {
		want = minPixelsPerUnit
	}
	d.ppu = common.Lerp(d.ppu, want, cameraSmooth)
}

func (d *spaceDrawer) toScreen(v cp.Vector) (float64, float64) {
	x := (v.X-d.camX)*d.ppu + float64(d.screenW)/2
	y := float64(d.screenH)/2 - (v.Y-d.camY)*d.ppu
	return x, y
}

// DrawWorld renders every engine shape plus the katamari overlays.
func (d *spaceDrawer) DrawWorld(screen *ebiten.Image, w *sim.World) {
	if screen == nil || w == nil || w.Space() == nil {
		return
	}
	d.screen = screen
	k := w.Katamari()
	if k != nil {
		d.kataShape = k.Shape
	} else {
		d.kataShape = nil
	}

	cp.DrawSpace(w.Space(), d)
	d.drawGrowthGhost(k)
	d.drawAttachments(k)
	d.screen = nil
}

// drawGrowthGhost outlines the pending target radius while the ball is
// still converging toward it.
func (d *spaceDrawer) drawGrowthGhost(k *sim.Katamari) {
	if k == nil || k.Body == nil || k.TargetRadius <= k.Radius {
		return
	}
	d.DrawCircle(k.Body.Position(), k.Body.Angle(), k.TargetRadius,
		cp.FColor{R: 0.3, G: 1.0, B: 0.5, A: 0.5}, cp.FColor{}, nil)
}

func (d *spaceDrawer) drawAttachments(k *sim.Katamari) {
	if k == nil {
		return
	}
	c := color.RGBA{R: 255, G: 200, B: 60, A: 255}
	for _, a := range k.Attachments() {
		x, y := d.toScreen(k.AttachmentWorldPosition(a))
		l := a.Size * a.Scale * d.ppu / 2
		if l < 1 {
			l = 1
		}
		ebitenutil.DrawLine(d.screen, x-l, y, x+l, y, c)
		ebitenutil.DrawLine(d.screen, x, y-l, x, y+l, c)
	}
}

func (d *spaceDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	c := fcolorToRGBA(outline)
	cx, cy := d.toScreen(pos)
	r := radius * d.ppu
	steps := 20
	px, py := cx+r, cy
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / float64(steps))
		qx := cx + math.Cos(th)*r
		qy := cy + math.Sin(th)*r
		ebitenutil.DrawLine(d.screen, px, py, qx, qy, c)
		px, py = qx, qy
	}
	// rotation indicator, flipped with the screen Y axis
	ax := cx + math.Cos(angle)*r
	ay := cy - math.Sin(angle)*r
	ebitenutil.DrawLine(d.screen, cx, cy, ax, ay, c)
}

func (d *spaceDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	ax, ay := d.toScreen(a)
	bx, by := d.toScreen(b)
	ebitenutil.DrawLine(d.screen, ax, ay, bx, by, fcolorToRGBA(fill))
}

func (d *spaceDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	ax, ay := d.toScreen(a)
	bx, by := d.toScreen(b)
	ebitenutil.DrawLine(d.screen, ax, ay, bx, by, fcolorToRGBA(outline))
	if radius*d.ppu > 1 {
		d.DrawCircle(a, 0, radius, outline, fill, data)
		d.DrawCircle(b, 0, radius, outline, fill, data)
	}
}

func (d *spaceDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil || count == 0 {
		return
	}
	c := fcolorToRGBA(outline)
	for i := 0; i < count; i++ {
		ax, ay := d.toScreen(verts[i])
		bx, by := d.toScreen(verts[(i+1)%count])
		ebitenutil.DrawLine(d.screen, ax, ay, bx, by, c)
	}
}

func (d *spaceDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	c := fcolorToRGBA(fill)
	x, y := d.toScreen(pos)
	l := size / 2
	ebitenutil.DrawLine(d.screen, x-l, y, x+l, y, c)
	ebitenutil.DrawLine(d.screen, x, y-l, x, y+l, c)
}

func (d *spaceDrawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d *spaceDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1.0, B: 0.2, A: 1.0}
}

func (d *spaceDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if shape == nil {
		return cp.FColor{R: 1, G: 1, B: 1, A: 1}
	}
	if shape == d.kataShape {
		return cp.FColor{R: 0.3, G: 1.0, B: 0.5, A: 1.0}
	}
	if shape.Body() != nil && shape.Body().GetType() == cp.BODY_STATIC {
		return cp.FColor{R: 0.4, G: 0.7, B: 1.0, A: 1.0}
	}
	if shape.Body() != nil && shape.Body().IsSleeping() {
		return cp.FColor{R: 0.45, G: 0.35, B: 0.55, A: 1.0}
	}
	return cp.FColor{R: 0.9, G: 0.4, B: 0.9, A: 1.0}
}

func (d *spaceDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 0.7, G: 0.7, B: 0.7, A: 1.0}
}

func (d *spaceDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1.0, G: 0.1, B: 0.1, A: 1.0}
}

func (d *spaceDrawer) Data() interface{} {
	return nil
}

func fcolorToRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
