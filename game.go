package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"golang.design/x/clipboard"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/roller/behavior"
	"github.com/milk9111/roller/levels"
	"github.com/milk9111/roller/sim"
	"github.com/milk9111/roller/tuning"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	frameDelta = 1.0 / 60.0

	// pushAccel is the horizontal acceleration applied while a roll key
	// is held, in world units per second squared.
	pushAccel = 40.0
	// hopSpeed is the vertical velocity a hop off the floor grants.
	hopSpeed = 12.0
)

type Game struct {
	frames int
	paused bool
	quit   bool

	world   *sim.World
	level   *levels.LevelSpec
	watcher *tuning.Watcher
	drawer  *spaceDrawer
	ui      *ebitenui.UI

	clipboardOK bool
}

func NewGame(levelName, tuningPath string) (*Game, error) {
	params := tuning.Default()
	if tuningPath != "" {
		p, err := tuning.Load(tuningPath)
		if err != nil {
			return nil, err
		}
		params = p
	}

	world := sim.NewWorld(params)
	if err := world.Initialize(); err != nil {
		return nil, err
	}
	world.SetBehavior(behavior.NewRuntime(params.Behavior.MaxNudge))

	level, err := levels.Load(levelName)
	if err != nil {
		return nil, err
	}
	if err := levels.Populate(world, level); err != nil {
		return nil, err
	}

	g := &Game{
		world:  world,
		level:  level,
		drawer: newSpaceDrawer(baseWidth, baseHeight),
	}
	g.ui = NewPauseUI(g)
	if k := world.Katamari(); k != nil && k.Body != nil {
		g.drawer.SnapTo(k.Body.Position())
	}

	if tuningPath != "" {
		watcher, err := tuning.NewWatcher(tuningPath)
		if err != nil {
			log.Printf("tuning watch disabled: %v", err)
		} else {
			g.watcher = watcher
		}
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("clipboard disabled: %v", err)
	} else {
		g.clipboardOK = true
	}
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
		g.watcher = nil
	}
}

func (g *Game) Update() error {
	g.frames++

	if g.quit {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		os.Exit(0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}

	g.drainTuningEvents()

	if g.paused {
		g.ui.Update()
		return nil
	}

	g.handleInput()

	if err := g.world.Update(frameDelta); err != nil {
		log.Printf("world update: %v", err)
	}

	if k := g.world.Katamari(); k != nil && k.Body != nil {
		g.drawer.Follow(k.Body.Position(), k.Radius)
	}
	return nil
}

// drainTuningEvents applies any pending tuning file edits without
// blocking the frame. A reload that fails validation is rejected and
// the previous parameters stay live.
func (g *Game) drainTuningEvents() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			p, err := tuning.Load(path)
			if err != nil {
				log.Printf("tuning reload rejected: %v", err)
				continue
			}
			if err := g.world.ApplyTuning(p); err != nil {
				log.Printf("tuning reload rejected: %v", err)
				continue
			}
			log.Printf("tuning reloaded from %s", path)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("tuning watch: %v", err)
		default:
			return
		}
	}
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.regenerate()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyTuning()
	}

	k := g.world.Katamari()
	if k == nil || k.Body == nil {
		return
	}

	var moveX float64
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		moveX -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		moveX += 1
	}
	hop := inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.nearFloor(k)

	if moveX == 0 && !hop {
		return
	}
	if k.Body.IsSleeping() {
		k.Body.Activate()
	}
	if moveX != 0 {
		k.Body.ApplyImpulseAtWorldPoint(cp.Vector{X: moveX * pushAccel * frameDelta * k.Mass}, k.Body.Position())
	}
	if hop {
		k.Body.ApplyImpulseAtWorldPoint(cp.Vector{Y: hopSpeed * k.Mass}, k.Body.Position())
	}
}

// nearFloor is a loose grounded check so hops cannot chain mid-air.
func (g *Game) nearFloor(k *sim.Katamari) bool {
	return k.Body.Position().Y <= k.Radius*1.25 && math.Abs(k.Body.Velocity().Y) < 1.0
}

func (g *Game) regenerate() {
	if err := levels.Regenerate(g.world, g.level); err != nil {
		log.Printf("regenerate %s: %v", g.level.Name, err)
	}
}

// copyTuning puts the live parameters on the clipboard as YAML, for
// pasting back into a tuning file after live edits.
func (g *Game) copyTuning() {
	if !g.clipboardOK {
		return
	}
	data, err := yaml.Marshal(g.world.Params())
	if err != nil {
		log.Printf("copy tuning: %v", err)
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	log.Printf("tuning copied to clipboard")
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawer.DrawWorld(screen, g.world)

	hud := fmt.Sprintf("Frames: %d    FPS: %.2f", g.frames, ebiten.ActualFPS())
	if k := g.world.Katamari(); k != nil {
		hud += fmt.Sprintf("\nRadius: %.2f -> %.2f    Threshold: %.2f    Collected: %d    Bodies: %d",
			k.Radius, k.TargetRadius, k.CollectionThreshold(), k.ItemsCollected, g.world.TrackedCount())
	}
	hud += "\nA/D roll    Space hop    R regenerate    C copy tuning    Esc pause"
	ebitenutil.DebugPrint(screen, hud)

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
