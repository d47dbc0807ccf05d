package behavior

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/common"
)

// nudgeDispatchScript invokes the script's nudge entry point and lands
// the result pair in globals the host reads back after each run.
const nudgeDispatchScript = `
__out := nudge(__frame, __seed, __x, __y, __vx, __vy)
__nx := __out[0]
__ny := __out[1]
`

// Runtime compiles named item behaviors once and evaluates them per
// call. Scripts define nudge(frame, seed, x, y, vx, vy) and return a
// [dx, dy] velocity delta. A behavior that fails to load, compile or
// run is disabled and logged a single time; callers just stop seeing
// nudges from it.
type Runtime struct {
	maxNudge float64
	compiled map[string]*tengo.Compiled
	disabled map[string]bool
}

func NewRuntime(maxNudge float64) *Runtime {
	return &Runtime{
		maxNudge: maxNudge,
		compiled: map[string]*tengo.Compiled{},
		disabled: map[string]bool{},
	}
}

// Nudge evaluates the named behavior and returns its velocity delta,
// clamped per axis to the configured bound. ok is false for unknown,
// disabled or failing behaviors.
func (r *Runtime) Nudge(name string, frame, seed int, pos, vel cp.Vector) (cp.Vector, bool) {
	if r == nil || strings.TrimSpace(name) == "" || r.disabled[name] {
		return cp.Vector{}, false
	}

	compiled, err := r.get(name)
	if err != nil {
		r.disable(name, err)
		return cp.Vector{}, false
	}

	inputs := map[string]interface{}{
		"__frame": int64(frame),
		"__seed":  int64(seed),
		"__x":     pos.X,
		"__y":     pos.Y,
		"__vx":    vel.X,
		"__vy":    vel.Y,
	}
	for key, value := range inputs {
		if err := compiled.Set(key, value); err != nil {
			r.disable(name, err)
			return cp.Vector{}, false
		}
	}

	if err := compiled.Run(); err != nil {
		r.disable(name, err)
		return cp.Vector{}, false
	}

	return cp.Vector{
		X: common.Clamp(compiled.Get("__nx").Float(), -r.maxNudge, r.maxNudge),
		Y: common.Clamp(compiled.Get("__ny").Float(), -r.maxNudge, r.maxNudge),
	}, true
}

func (r *Runtime) get(name string) (*tengo.Compiled, error) {
	if c, ok := r.compiled[name]; ok && c != nil {
		return c, nil
	}

	source, err := loadScript(name)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript([]byte(string(source) + "\n" + nudgeDispatchScript))
	_ = script.Add("__frame", int64(0))
	_ = script.Add("__seed", int64(0))
	_ = script.Add("__x", 0.0)
	_ = script.Add("__y", 0.0)
	_ = script.Add("__vx", 0.0)
	_ = script.Add("__vy", 0.0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("behavior: compile %s: %w", name, err)
	}
	r.compiled[name] = compiled
	return compiled, nil
}

func (r *Runtime) disable(name string, err error) {
	if r.disabled[name] {
		return
	}
	r.disabled[name] = true
	log.Printf("Behavior: %s disabled: %v", name, err)
}

// Names lists the embedded behaviors in sorted order.
func Names() []string {
	entries, err := scriptsFS.ReadDir("scripts")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".tengo") {
			names = append(names, strings.TrimSuffix(name, ".tengo"))
		}
	}
	sort.Strings(names)
	return names
}
