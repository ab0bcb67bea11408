// Package scenario replays authored scenarios through a director.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/director"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/prefabs"
	"github.com/milk9111/cameraman/trace"
)

const defaultDT = 1.0 / 60

// EmitFunc receives every tick. Returning an error stops the run.
type EmitFunc func(director.TickOutput) error

// Summary describes a finished run.
type Summary struct {
	Ticks    int
	Switches int
	Last     director.TickOutput
}

// WithObstacles sets cfg.Tracer from the scenario's level collision, using
// backend or cfg.TracerBackend when backend is empty.
func WithObstacles(cfg *director.Config, spec prefabs.ScenarioSpec, backend string) error {
	if backend == "" {
		backend = cfg.TracerBackend
	}
	if len(spec.Obstacles) == 0 {
		cfg.Tracer = nil
		return nil
	}
	tracer, err := trace.Build(backend, spec.Obstacles)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", spec.Name, err)
	}
	cfg.Tracer = tracer
	return nil
}

// Setup creates a director for spec and spawns its initial cast.
func Setup(cfg *director.Config, spec prefabs.ScenarioSpec, opts ...director.Option) (*director.Director, error) {
	d, err := director.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, a := range spec.Agents {
		if _, err := d.SpawnPrefab(a.Name, a.Prefab); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", a.Name, err))
		}
	}
	for _, r := range spec.Rigs {
		if err := d.AddRigPrefab(r.Name, r.Prefab, r.Follow); err != nil {
			errs = append(errs, fmt.Errorf("rig %s: %w", r.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", spec.Name, err)
	}
	return d, nil
}

// Run plays every step of spec. Step inputs are sent on the step's first
// tick and persist in the director afterwards. A refused camera switch is
// logged and the run continues.
func Run(ctx context.Context, d *director.Director, spec prefabs.ScenarioSpec, logger *slog.Logger, emit EmitFunc) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dt := spec.DT
	if dt <= 0 {
		dt = defaultDT
	}

	var sum Summary
	for i, step := range spec.Steps {
		for _, name := range step.Despawn {
			if err := d.Despawn(name); err != nil {
				return sum, fmt.Errorf("step %d: %w", i, err)
			}
		}
		for _, a := range step.Spawn {
			if _, err := d.SpawnPrefab(a.Name, a.Prefab); err != nil {
				return sum, fmt.Errorf("step %d: spawn %s: %w", i, a.Name, err)
			}
		}
		if step.SwitchTo != "" {
			switched, err := d.SwitchTo(step.SwitchTo)
			switch {
			case errors.Is(err, camera.ErrUnknownRig):
				return sum, fmt.Errorf("step %d: %w", i, err)
			case err != nil:
				logger.Warn("scenario: camera switch refused", "step", i, "rig", step.SwitchTo, "err", err)
			case switched:
				sum.Switches++
			}
		}

		in := stepInput(step, dt)
		ticks := max(step.Ticks, 1)
		for n := 0; n < ticks; n++ {
			out, err := d.Tick(ctx, in)
			if err != nil {
				return sum, fmt.Errorf("step %d tick %d: %w", i, n, err)
			}
			sum.Ticks++
			sum.Last = out
			if emit != nil {
				if err := emit(out); err != nil {
					return sum, err
				}
			}
			in = director.TickInput{DT: dt}
		}
	}
	return sum, nil
}

func stepInput(step prefabs.StepSpec, dt float64) director.TickInput {
	in := director.TickInput{
		DT:         dt,
		Perception: step.Perception,
		Positions:  step.Positions,
		Views:      step.Views,
	}
	if len(step.Signals) > 0 {
		in.Signals = make(map[string]gameplay.SignalSet, len(step.Signals))
		for name, sig := range step.Signals {
			in.Signals[name] = gameplay.NewSignalSet(sig...)
		}
	}
	return in
}
