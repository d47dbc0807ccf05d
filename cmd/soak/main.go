package main

import (
	"flag"
	"log"
	"math"
	"math/rand/v2"
	"os"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/behavior"
	"github.com/milk9111/roller/levels"
	"github.com/milk9111/roller/sim"
	"github.com/milk9111/roller/tuning"
)

const (
	frameDelta = 1.0 / 60.0
	sweepAccel = 40.0
)

func main() {
	levelName := flag.String("level", "junkyard", "level name in levels/ (basename, .yaml optional)")
	frames := flag.Int("frames", 6000, "frames to simulate")
	items := flag.Int("items", 0, "extra items scattered on top of the level")
	seed := flag.Uint64("seed", 1, "seed for the extra item scatter")
	report := flag.Int("report", 600, "frames between integrity reports")
	flag.Parse()

	params := tuning.Default()
	world := sim.NewWorld(params)
	if err := world.Initialize(); err != nil {
		log.Fatal(err)
	}
	world.SetBehavior(behavior.NewRuntime(params.Behavior.MaxNudge))

	level, err := levels.Load(*levelName)
	if err != nil {
		log.Fatal(err)
	}
	if err := levels.Populate(world, level); err != nil {
		log.Fatal(err)
	}
	if *items > 0 {
		scatter(world, params.World.BoundsHalfExtent, *items, *seed)
	}

	log.Printf("soak: level %s, %d bodies, %d frames", level.Name, world.TrackedCount(), *frames)

	sweep := newSweepDriver(params.World.BoundsHalfExtent * 0.8)
	for frame := 1; frame <= *frames; frame++ {
		sweep.Drive(world)
		if err := world.Update(frameDelta); err != nil {
			log.Fatal(err)
		}
		if *report > 0 && frame%*report == 0 {
			printReport(world, frame)
		}
	}

	if !finalReport(world) {
		os.Exit(1)
	}
}

// scatter drops extra items across the floor beyond what the level
// placed, to push the tracked set toward the requested body count.
func scatter(w *sim.World, half float64, count int, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	names := behavior.Names()
	for i := 0; i < count; i++ {
		size := 0.2 + rng.Float64()*1.3
		pos := cp.Vector{
			X: (rng.Float64()*2 - 1) * half * 0.9,
			Y: 0.5 + rng.Float64()*3.5,
		}
		shape := sim.ShapeBall
		if i%2 == 1 {
			shape = sim.ShapeBox
		}
		name := ""
		if len(names) > 0 && i%3 == 0 {
			name = names[(i/3)%len(names)]
		}
		if _, err := w.SpawnItem(size, pos, shape, name, nil); err != nil {
			log.Printf("soak: scatter item %d: %v", i, err)
		}
	}
}

// sweepDriver shoves the katamari toward alternating goal posts so a
// headless run still plows through the piles.
type sweepDriver struct {
	goalX float64
}

func newSweepDriver(limit float64) *sweepDriver {
	return &sweepDriver{goalX: limit}
}

func (s *sweepDriver) Drive(w *sim.World) {
	k := w.Katamari()
	if k == nil || k.Body == nil {
		return
	}
	pos := k.Body.Position()
	if math.Abs(pos.X-s.goalX) < k.Radius+1 {
		s.goalX = -s.goalX
	}
	dir := 1.0
	if s.goalX < pos.X {
		dir = -1
	}
	if k.Body.IsSleeping() {
		k.Body.Activate()
	}
	k.Body.ApplyImpulseAtWorldPoint(cp.Vector{X: dir * sweepAccel * frameDelta * k.Mass}, k.Body.Position())
}

func printReport(w *sim.World, frame int) {
	rep := w.Validate()
	radius, collected := 0.0, 0
	if k := w.Katamari(); k != nil {
		radius, collected = k.Radius, k.ItemsCollected
	}
	log.Printf("soak: frame %d: world %d tracked %d orphans %d fixed %d radius %.2f collected %d",
		frame, rep.BodiesInWorld, rep.BodiesTracked, rep.OrphanedBodies, rep.FixedLeaks, radius, collected)
}

// finalReport prints the deep census and reports whether the run ended
// with a clean registry.
func finalReport(w *sim.World) bool {
	deep := w.DeepIntegrityCheck()
	radius, collected := 0.0, 0
	if k := w.Katamari(); k != nil {
		radius, collected = k.Radius, k.ItemsCollected
	}

	log.Printf("soak: done: world %d tracked %d orphans %d fixed %d",
		deep.BodiesInWorld, deep.BodiesTracked, deep.OrphanedBodies, deep.FixedLeaks)
	log.Printf("soak: census: sleeping %d awake %d static %d dynamic %d",
		deep.Sleeping, deep.Awake, deep.Static, deep.Dynamic)
	log.Printf("soak: growth: radius %.3f collected %d", radius, collected)
	for _, issue := range deep.Issues {
		log.Printf("soak: issue: %s", issue)
	}

	if deep.OrphanedBodies > 0 || deep.FixedLeaks > 0 || len(deep.Issues) > 0 {
		log.Printf("soak: FAILED")
		return false
	}
	log.Printf("soak: clean")
	return true
}
