package planner

import (
	"fmt"
	"math"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// Config holds the planner's immutable tuning. TimeStep and MaxDepth are the
// knobs that trade lookahead against per-cycle latency: worst case the search
// evaluates O(5^(MaxDepth+1)) nodes, each costing footprint×obstacle
// clearance computations.
type Config struct {
	TimeStep         float64 // seconds per simulated step, > 0
	CollisionPenalty float64 // metres; must dominate any plausible clearance
	MaxDepth         int     // lookahead horizon, ≥ 0
	Wheelbase        float64 // metres, > 0
	CarCircleRadius  float64 // footprint circle radius, metres, ≥ 0
	SteerStepDeg     float64 // candidate offset step, degrees, > 0
	MaxSteerDeg      float64 // admissible steering bound, degrees, > 0
}

// Validate reports the first implausible field.
func (c Config) Validate() error {
	switch {
	case c.TimeStep <= 0:
		return fmt.Errorf("planner: time step must be positive, got %g", c.TimeStep)
	case c.CollisionPenalty <= 0:
		return fmt.Errorf("planner: collision penalty must be positive, got %g", c.CollisionPenalty)
	case c.MaxDepth < 0:
		return fmt.Errorf("planner: max depth must be non-negative, got %d", c.MaxDepth)
	case c.Wheelbase <= 0:
		return fmt.Errorf("planner: wheelbase must be positive, got %g", c.Wheelbase)
	case c.CarCircleRadius < 0:
		return fmt.Errorf("planner: car circle radius must be non-negative, got %g", c.CarCircleRadius)
	case c.SteerStepDeg <= 0:
		return fmt.Errorf("planner: steer step must be positive, got %g", c.SteerStepDeg)
	case c.MaxSteerDeg <= 0:
		return fmt.Errorf("planner: steer bound must be positive, got %g", c.MaxSteerDeg)
	}
	return nil
}

// Planner is the per-cycle planning entry point. It owns only its
// configuration; obstacle snapshots and vehicle states are owned by the
// caller for the duration of one FindPath call and nothing persists across
// calls. Not safe for concurrent FindPath invocations.
type Planner struct {
	cfg     Config
	source  StateSource
	emitter Emitter // may be nil
}

// New builds a planner reading vehicle states from source. emitter may be
// nil to disable debug markers.
func New(cfg Config, source StateSource, emitter Emitter) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("planner: state source is required")
	}
	return &Planner{cfg: cfg, source: source, emitter: emitter}, nil
}

// FindPath snapshots the obstacles, reads the current vehicle state and
// returns the first-level command of the branch maximizing the accumulated
// clearance over the lookahead horizon. Deterministic: identical state,
// obstacles and configuration yield the identical command.
func (p *Planner) FindPath(obstacles []geom.Circle) Command {
	snapshot := make([]geom.Circle, len(obstacles))
	copy(snapshot, obstacles)

	cmd, _ := p.search(p.source.State(), 0, snapshot)
	return cmd
}

// search evaluates one node of the implicit recursion tree and returns the
// best branch command and value. Branch values: a colliding step scores
// clearance−penalty (still ordered by depth of penetration, so the least-bad
// collision wins when every branch collides); an interior step accumulates
// clearance plus the subtree value; at the horizon the step clearance stands
// alone. Ties break toward the first candidate in generator order.
func (p *Planner) search(s State, depth int, obstacles []geom.Circle) (Command, float64) {
	candidates := Candidates(s.Steer, s.Velocity, p.cfg.SteerStepDeg, p.cfg.MaxSteerDeg)

	best := math.Inf(-1)
	var bestCmd Command
	for _, cmd := range candidates {
		next, clearance := p.Simulate(s, cmd, obstacles)

		var value float64
		switch {
		case clearance <= 0:
			value = clearance - p.cfg.CollisionPenalty
		case depth < p.cfg.MaxDepth:
			_, sub := p.search(next, depth+1, obstacles)
			value = clearance + sub
		default:
			value = clearance
		}
		if value > best {
			best = value
			bestCmd = cmd
		}
	}
	return bestCmd, best
}
