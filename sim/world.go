package sim

import (
	"errors"
	"fmt"
	"log"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/tuning"
)

const (
	collisionTypeGround cp.CollisionType = iota + 1
	collisionTypeKatamari
	collisionTypeItem
)

// ErrNotInitialized is returned by operations that need a live engine
// space. Frame-loop call sites log it and keep running.
var ErrNotInitialized = errors.New("sim: world not initialized")

// ItemBehavior supplies scripted idle motion for items. Implementations
// return a velocity nudge and whether the named behavior produced one.
type ItemBehavior interface {
	Nudge(name string, frame, seed int, pos, vel cp.Vector) (cp.Vector, bool)
}

// ItemShape selects the engine shape built for an item.
type ItemShape int

const (
	ShapeBall ItemShape = iota
	ShapeBox
)

// World owns the engine space, the tracked body set and the katamari.
// All mutation happens on the frame goroutine; nothing here is safe for
// concurrent use.
type World struct {
	params  tuning.Params
	space   *cp.Space
	stepper *Stepper

	tracked     []*PhysicsBody
	shapeToBody map[*cp.Shape]*PhysicsBody
	ground      []*cp.Shape

	katamari *Katamari
	kataBody *PhysicsBody

	behavior ItemBehavior

	pendingRemovals []*PhysicsBody
	handlersReady   bool
	frame           int
	nextID          int
}

// NewWorld builds an empty world; call Initialize before use.
func NewWorld(params tuning.Params) *World {
	return &World{params: params}
}

// Initialize creates the engine space, applies the solver parameters
// and builds the static ground. Calling it on a live world tears the
// previous space down first, so it doubles as a full reset.
func (w *World) Initialize() error {
	if w == nil {
		return ErrNotInitialized
	}
	if w.space != nil {
		w.teardown()
	}

	space := cp.NewSpace()
	space.Iterations = uint(w.params.World.Iterations)
	space.SetGravity(cp.Vector{X: 0, Y: w.params.World.Gravity})
	space.SleepTimeThreshold = w.params.World.SleepTimeThreshold
	space.IdleSpeedThreshold = w.params.World.IdleSpeedThreshold

	w.space = space
	w.stepper = NewStepper(w.params.Stepper)
	w.tracked = nil
	w.shapeToBody = make(map[*cp.Shape]*PhysicsBody)
	w.ground = nil
	w.pendingRemovals = nil
	w.handlersReady = false
	w.frame = 0

	w.buildGround()
	w.setupHandlers()
	return nil
}

func (w *World) teardown() {
	w.tracked = nil
	w.shapeToBody = nil
	w.ground = nil
	w.pendingRemovals = nil
	w.katamari = nil
	w.kataBody = nil
	w.handlersReady = false
	w.space = nil
	log.Printf("World: previous space torn down")
}

// buildGround lays a floor segment between the map bounds plus a short
// containment wall at each end.
func (w *World) buildGround() {
	half := w.params.World.BoundsHalfExtent
	wallTop := w.params.World.BoundsWallHeight
	segments := [][2]cp.Vector{
		{{X: -half, Y: 0}, {X: half, Y: 0}},
		{{X: -half, Y: 0}, {X: -half, Y: wallTop}},
		{{X: half, Y: 0}, {X: half, Y: wallTop}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg[0], seg[1], 0.05)
		shape.SetFriction(w.params.World.Friction)
		shape.SetElasticity(w.params.World.Elasticity)
		shape.SetCollisionType(collisionTypeGround)
		w.space.AddShape(shape)
		w.ground = append(w.ground, shape)
	}
}

// SpawnKatamari creates the player ball, inserts it into the engine and
// the tracked set. Only one can exist at a time.
func (w *World) SpawnKatamari(pos cp.Vector, radius float64) (*Katamari, error) {
	if w == nil || w.space == nil {
		return nil, ErrNotInitialized
	}
	if radius <= 0 {
		return nil, fmt.Errorf("sim: spawn katamari: radius must be positive, got %v", radius)
	}
	if w.katamari != nil {
		return nil, fmt.Errorf("sim: spawn katamari: one already exists")
	}

	k := NewKatamari(radius, w.params.Growth, w.params.Attraction)
	body := cp.NewBody(k.Mass, cp.MomentForCircle(k.Mass, 0, radius, cp.Vector{}))
	body.SetPosition(pos)
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(w.params.World.Friction)
	shape.SetElasticity(w.params.World.Elasticity)
	shape.SetCollisionType(collisionTypeKatamari)
	k.Body = body
	k.Shape = shape

	pb := &PhysicsBody{
		ID:    w.allocID(),
		Kind:  KindKatamari,
		Size:  radius * 2,
		Mass:  k.Mass,
		Body:  body,
		Shape: shape,
	}
	if err := w.Add(pb, true); err != nil {
		return nil, err
	}
	w.katamari = k
	w.kataBody = pb
	return k, nil
}

// SpawnItem creates a collectible, inserts it into the engine and the
// tracked set. Item mass scales with the cube of its size.
func (w *World) SpawnItem(size float64, pos cp.Vector, shapeKind ItemShape, behaviorName string, owner VisualOwner) (*PhysicsBody, error) {
	if w == nil || w.space == nil {
		return nil, ErrNotInitialized
	}
	if size <= 0 {
		return nil, fmt.Errorf("sim: spawn item: size must be positive, got %v", size)
	}

	mass := size * size * size
	var moment float64
	if shapeKind == ShapeBox {
		moment = cp.MomentForBox(mass, size, size)
	} else {
		moment = cp.MomentForCircle(mass, 0, size/2, cp.Vector{})
	}
	body := cp.NewBody(mass, moment)
	body.SetPosition(pos)

	var shape *cp.Shape
	if shapeKind == ShapeBox {
		shape = cp.NewBox(body, size, size, 0)
	} else {
		shape = cp.NewCircle(body, size/2, cp.Vector{})
	}
	shape.SetFriction(w.params.World.Friction)
	shape.SetElasticity(w.params.World.Elasticity)
	shape.SetCollisionType(collisionTypeItem)

	pb := &PhysicsBody{
		ID:          w.allocID(),
		Kind:        KindItem,
		Size:        size,
		Mass:        mass,
		Collectible: true,
		Behavior:    behaviorName,
		Body:        body,
		Shape:       shape,
		Owner:       owner,
	}
	if err := w.Add(pb, true); err != nil {
		return nil, err
	}
	return pb, nil
}

func (w *World) allocID() int {
	w.nextID++
	return w.nextID
}

// Add inserts a body into the engine. Tracked bodies join the bulk
// bookkeeping and the contact lookup; untracked ones stay invisible to
// bulk operations. Adding an already tracked body is a no-op.
func (w *World) Add(b *PhysicsBody, track bool) error {
	if w == nil || w.space == nil {
		return ErrNotInitialized
	}
	if b == nil || b.Body == nil || b.Shape == nil {
		return fmt.Errorf("sim: add: body missing engine handles")
	}
	if b.inSpace {
		return nil
	}

	if b.Body.GetType() != cp.BODY_STATIC {
		w.space.AddBody(b.Body)
	}
	w.space.AddShape(b.Shape)
	b.inSpace = true

	if !track {
		return nil
	}
	w.tracked = append(w.tracked, b)
	w.shapeToBody[b.Shape] = b
	return nil
}

// Remove detaches the contact lookup, pulls the body out of the engine
// and drops it from tracking. Removing twice, or removing a body whose
// engine half is already gone, is safe.
func (w *World) Remove(b *PhysicsBody) error {
	if w == nil || w.space == nil {
		return ErrNotInitialized
	}
	if b == nil {
		return nil
	}

	w.detachHandler(b)

	if b.inSpace {
		if b.Shape != nil {
			w.space.RemoveShape(b.Shape)
		}
		if b.Body != nil && b.Body.GetType() != cp.BODY_STATIC {
			w.space.RemoveBody(b.Body)
		}
		b.inSpace = false
	}

	w.untrack(b)

	if b.Kind == KindKatamari && w.kataBody == b {
		w.katamari = nil
		w.kataBody = nil
	}
	return nil
}

func (w *World) untrack(b *PhysicsBody) {
	for i, t := range w.tracked {
		if t == b {
			w.tracked = append(w.tracked[:i], w.tracked[i+1:]...)
			return
		}
	}
}

// RemoveAllMatching removes every tracked body the predicate selects,
// iterating a snapshot so removal never mutates the live set mid-walk.
// Returns the number removed.
func (w *World) RemoveAllMatching(pred func(*PhysicsBody) bool) int {
	if w == nil || w.space == nil || pred == nil {
		return 0
	}
	snapshot := make([]*PhysicsBody, len(w.tracked))
	copy(snapshot, w.tracked)

	removed := 0
	for _, b := range snapshot {
		if b == nil || !pred(b) {
			continue
		}
		if err := w.Remove(b); err != nil {
			log.Printf("World: bulk remove body %d: %v", b.ID, err)
			continue
		}
		removed++
	}
	return removed
}

// ClearTracking empties the tracked set and the item contact lookups
// without touching the engine world, for when body ownership moves
// elsewhere. The katamari keeps its contact wiring since its growth
// state stays here.
func (w *World) ClearTracking() {
	if w == nil {
		return
	}
	w.tracked = nil
	w.shapeToBody = make(map[*cp.Shape]*PhysicsBody)
	if w.kataBody != nil && w.kataBody.Shape != nil {
		w.shapeToBody[w.kataBody.Shape] = w.kataBody
	}
}

// SetBehavior wires scripted item motion; nil disables it.
func (w *World) SetBehavior(b ItemBehavior) {
	if w == nil {
		return
	}
	w.behavior = b
}

// ApplyTuning swaps the live parameters. Solver settings apply to the
// current space; stepper and growth pick the change up on their next
// use.
func (w *World) ApplyTuning(p tuning.Params) error {
	if w == nil {
		return ErrNotInitialized
	}
	if err := p.Validate(); err != nil {
		return err
	}
	w.params = p
	if w.space != nil {
		w.space.Iterations = uint(p.World.Iterations)
		w.space.SetGravity(cp.Vector{X: 0, Y: p.World.Gravity})
		w.space.SleepTimeThreshold = p.World.SleepTimeThreshold
		w.space.IdleSpeedThreshold = p.World.IdleSpeedThreshold
	}
	if w.stepper != nil {
		w.stepper.FixedStep = p.Stepper.FixedStep
		w.stepper.MaxStepsPerFrame = p.Stepper.MaxStepsPerFrame
	}
	if w.katamari != nil {
		w.katamari.SetParams(p.Growth, p.Attraction)
	}
	return nil
}

// Update runs one frame: scripted item motion, attraction, the fixed
// timestep advance (contact callbacks fire inside), deferred removals,
// growth convergence and the throttled maintenance passes.
func (w *World) Update(dt float64) error {
	if w == nil || w.space == nil {
		return ErrNotInitialized
	}
	w.frame++

	w.runBehaviors()
	w.applyAttraction()

	w.stepper.Advance(w.space, dt)

	w.flushPendingRemovals()
	w.updateKatamari(dt)

	if interval := w.params.Activation.IntervalFrames; interval > 0 && w.frame%interval == 0 {
		if w.katamari != nil && w.katamari.Body != nil {
			w.ManageActivation(w.katamari.Body.Position(), w.params.Activation.ActiveDistance)
		}
	}
	if interval := w.params.Integrity.ValidateIntervalFrames; interval > 0 && w.frame%interval == 0 {
		report := w.Validate()
		if report.FixedLeaks > 0 || report.OrphanedBodies > 0 {
			log.Printf("World: integrity: fixed %d leaks, %d orphans (world %d, tracked %d)",
				report.FixedLeaks, report.OrphanedBodies, report.BodiesInWorld, report.BodiesTracked)
		}
	}
	if interval := w.params.Integrity.DeepIntervalFrames; interval > 0 && w.frame%interval == 0 {
		deep := w.DeepIntegrityCheck()
		for _, issue := range deep.Issues {
			log.Printf("World: deep integrity: %s", issue)
		}
		w.checkConfig()
	}
	return nil
}

func (w *World) runBehaviors() {
	interval := w.params.Activation.IntervalFrames
	if w.behavior == nil || interval <= 0 || w.frame%interval != 0 {
		return
	}
	for _, b := range w.tracked {
		if b == nil || b.Kind != KindItem || b.Collected || b.Behavior == "" {
			continue
		}
		if b.Body == nil || b.Body.IsSleeping() {
			continue
		}
		nudge, ok := w.behavior.Nudge(b.Behavior, w.frame, b.ID, b.Body.Position(), b.Body.Velocity())
		if !ok {
			continue
		}
		b.Body.ApplyImpulseAtWorldPoint(nudge.Mult(b.Mass), b.Body.Position())
	}
}

func (w *World) flushPendingRemovals() {
	if len(w.pendingRemovals) == 0 {
		return
	}
	pending := w.pendingRemovals
	w.pendingRemovals = nil
	for _, b := range pending {
		if err := w.Remove(b); err != nil {
			log.Printf("World: deferred remove body %d: %v", b.ID, err)
		}
	}
}

func (w *World) updateKatamari(dt float64) {
	if w.katamari == nil {
		return
	}
	if w.katamari.Update(dt, w.params.World.BoundsHalfExtent) {
		w.rebuildKatamariShape()
	}
}

// rebuildKatamariShape swaps the engine circle for the current radius,
// keeping friction, contact wiring and the payload in sync.
func (w *World) rebuildKatamariShape() {
	k := w.katamari
	if k == nil || k.Body == nil || w.space == nil {
		return
	}
	if k.Shape != nil {
		delete(w.shapeToBody, k.Shape)
		w.space.RemoveShape(k.Shape)
	}
	shape := cp.NewCircle(k.Body, k.Radius, cp.Vector{})
	shape.SetFriction(w.params.World.Friction)
	shape.SetElasticity(w.params.World.Elasticity)
	shape.SetCollisionType(collisionTypeKatamari)
	w.space.AddShape(shape)
	k.Shape = shape

	if w.kataBody != nil {
		w.kataBody.Shape = shape
		w.kataBody.Size = k.Radius * 2
		w.kataBody.Mass = k.Mass
		w.shapeToBody[shape] = w.kataBody
	}
}

// Space exposes the engine space for rendering and scripted scenarios.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// Katamari returns the player ball, or nil before spawn.
func (w *World) Katamari() *Katamari {
	if w == nil {
		return nil
	}
	return w.katamari
}

// KatamariBody returns the tracked payload for the player ball.
func (w *World) KatamariBody() *PhysicsBody {
	if w == nil {
		return nil
	}
	return w.kataBody
}

// TrackedBodies returns a copy of the tracked set in insertion order.
func (w *World) TrackedBodies() []*PhysicsBody {
	if w == nil {
		return nil
	}
	out := make([]*PhysicsBody, len(w.tracked))
	copy(out, w.tracked)
	return out
}

// TrackedCount reports the tracked set size.
func (w *World) TrackedCount() int {
	if w == nil {
		return 0
	}
	return len(w.tracked)
}

// Frame reports the number of Update calls since Initialize.
func (w *World) Frame() int {
	if w == nil {
		return 0
	}
	return w.frame
}

// Params returns the live tuning values.
func (w *World) Params() tuning.Params {
	if w == nil {
		return tuning.Params{}
	}
	return w.params
}
