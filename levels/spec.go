package levels

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownLevel marks a level name with no disk or embedded copy.
var ErrUnknownLevel = errors.New("levels: unknown level")

// LevelSpec describes one playfield: where the ball starts and which
// item clusters populate the ground. Positions are in world units with
// the floor at y zero.
type LevelSpec struct {
	Name     string        `yaml:"name"`
	Katamari KatamariSpec  `yaml:"katamari"`
	Clusters []ClusterSpec `yaml:"clusters"`
}

type KatamariSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// ClusterSpec is a run of same-sized items fanned across a spread,
// centered on x. Overflow past one row stacks upward.
type ClusterSpec struct {
	Kind     string  `yaml:"kind"`
	Size     float64 `yaml:"size"`
	Count    int     `yaml:"count"`
	X        float64 `yaml:"x"`
	Spread   float64 `yaml:"spread"`
	Behavior string  `yaml:"behavior"`
}

// Load reads and validates a named level, preferring a disk copy under
// levels/ so layout edits do not need a rebuild.
func Load(name string) (*LevelSpec, error) {
	data, err := load(name)
	if err != nil {
		return nil, fmt.Errorf("levels: load %s: %w", name, ErrUnknownLevel)
	}
	var spec LevelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("levels: unmarshal %s: %w", name, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("levels: validate %s: %w", name, err)
	}
	return &spec, nil
}

// Validate rejects specs that would spawn degenerate bodies.
func (l *LevelSpec) Validate() error {
	if l == nil {
		return fmt.Errorf("nil spec")
	}
	if l.Name == "" {
		return fmt.Errorf("missing name")
	}
	if l.Katamari.Radius <= 0 {
		return fmt.Errorf("katamari radius must be positive, got %v", l.Katamari.Radius)
	}
	if len(l.Clusters) == 0 {
		return fmt.Errorf("no clusters")
	}
	for i, c := range l.Clusters {
		switch c.Kind {
		case "ball", "box":
		default:
			return fmt.Errorf("cluster %d: kind must be ball or box, got %q", i, c.Kind)
		}
		if c.Size <= 0 {
			return fmt.Errorf("cluster %d: size must be positive, got %v", i, c.Size)
		}
		if c.Count <= 0 {
			return fmt.Errorf("cluster %d: count must be positive, got %d", i, c.Count)
		}
		if c.Spread < 0 {
			return fmt.Errorf("cluster %d: spread must not be negative, got %v", i, c.Spread)
		}
	}
	return nil
}
