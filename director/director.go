// Package director runs the per-tick pipeline: context selection, behavior
// evaluation, camera mode resolution, interpolation and output, for a set
// of agents and the camera rigs that frame them.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
	"github.com/milk9111/cameraman/ecs/system"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/perception"
)

var (
	ErrAgentExists  = errors.New("director: agent already spawned")
	ErrUnknownAgent = errors.New("director: unknown agent")
	ErrRigExists    = errors.New("director: rig already exists")
	ErrInvalidDT    = errors.New("director: dt must be a non-negative number")
)

// Option configures a Director.
type Option func(*Director)

func WithLogger(l *slog.Logger) Option {
	return func(d *Director) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider for tick spans. The
// global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Director) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "github.com/milk9111/cameraman/director"

// AgentInfo identifies a spawned agent.
type AgentInfo struct {
	ID   string
	Name string
}

// SpawnOptions are an agent's initial inputs.
type SpawnOptions struct {
	Position    common.Vec3
	PivotOffset common.Vec3
	Signals     []string
}

// TickInput is one tick of external input. Maps are keyed by agent name,
// or rig name for Views. Agents absent from a map keep their last input.
type TickInput struct {
	DT         float64
	Signals    map[string]gameplay.SignalSet
	Perception map[string]perception.Snapshot
	Positions  map[string]common.Vec3
	Views      map[string]common.Rotator
}

// TickOutput is everything one tick produced.
type TickOutput struct {
	Tick      uint64
	Time      float64
	Rigs      []system.RigView
	Agents    []system.AgentView
	Events    []ecs.Event
	ActiveRig string
	Operator  string
}

// Active returns the active rig's view.
func (o TickOutput) Active() (system.RigView, bool) {
	for _, r := range o.Rigs {
		if r.Name == o.ActiveRig {
			return r, true
		}
	}
	return system.RigView{}, false
}

// Director owns the world and every system in it. It is not safe for
// concurrent use; drive it from one goroutine.
type Director struct {
	cfg    *Config
	world  *ecs.World
	logger *slog.Logger
	tracer trace.Tracer

	contexts *system.ContextSystem
	behavior *system.BehaviorSystem
	modes    *system.CameraModeSystem
	cameras  *system.CameraSystem
	output   *system.OutputSystem

	board    *camera.Switchboard
	agents   map[string]ecs.Entity
	rigs     map[string]ecs.Entity
	operator string
	order    uint64
}

func New(cfg *Config, opts ...Option) (*Director, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	d := &Director{
		cfg:    cfg,
		world:  ecs.NewWorld(),
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		agents: make(map[string]ecs.Entity),
		rigs:   make(map[string]ecs.Entity),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.contexts = system.NewContextSystem(cfg.Selector, d.logger)
	d.behavior = system.NewBehaviorSystem(cfg.Tree, d.logger)
	d.behavior.SetParallel(cfg.ParallelAgents, cfg.Workers)
	d.modes = system.NewCameraModeSystem(cfg.Profiles, cfg.SnapOnContextChange)
	d.cameras = system.NewCameraSystem(camera.NewInterpolator(cfg.Tracer, cfg.Profiles.MinArmLength()))
	d.output = system.NewOutputSystem()

	sched := ecs.NewScheduler()
	sched.Add(ecs.StageContext, d.contexts)
	sched.Add(ecs.StageBehavior, d.behavior)
	sched.Add(ecs.StageCameraMode, d.modes)
	sched.Add(ecs.StageCamera, d.cameras)
	sched.Add(ecs.StageOutput, d.output)
	d.world.AddSystem(sched)

	d.board = camera.NewSwitchboard(cfg.SwitchLock, cfg.RigCooldown)
	d.board.OnChange(func(c camera.ActiveChange) {
		d.logger.Info("director: active rig changed", "from", c.From, "to", c.To, "at", c.At)
	})
	return d, nil
}

// Config returns the configuration currently in effect.
func (d *Director) Config() *Config {
	return d.cfg
}

// Reload swaps in a new configuration. Agents keep their behavior state;
// any whose leaf no longer exists re-enter the new tree on the next tick.
// Rigs keep their interpolation memory.
func (d *Director) Reload(cfg *Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	d.cfg = cfg
	d.contexts.SetSelector(cfg.Selector)
	d.behavior.SetTree(cfg.Tree)
	d.behavior.SetParallel(cfg.ParallelAgents, cfg.Workers)
	d.modes.SetTable(cfg.Profiles)
	d.modes.SetSnapOnContextChange(cfg.SnapOnContextChange)
	d.cameras.SetInterpolator(camera.NewInterpolator(cfg.Tracer, cfg.Profiles.MinArmLength()))
	d.board.SwitchLock = math.Max(cfg.SwitchLock, 0)
	d.board.Cooldown = math.Max(cfg.RigCooldown, 0)
	d.logger.Info("director: configuration reloaded", "fallback", cfg.Tree.Fallback(), "min_hold_ticks", cfg.Tree.MinHoldTicks())
	return nil
}

// Spawn creates an agent. The first agent spawned becomes the operator.
func (d *Director) Spawn(name string, opts SpawnOptions) (AgentInfo, error) {
	if name == "" {
		return AgentInfo{}, fmt.Errorf("%w: empty name", ErrUnknownAgent)
	}
	if _, ok := d.agents[name]; ok {
		return AgentInfo{}, fmt.Errorf("%w: %q", ErrAgentExists, name)
	}

	w := d.world
	e := ecs.CreateEntity(w)
	d.order++
	info := AgentInfo{ID: uuid.NewString(), Name: name}
	components := []error{
		ecs.Add(w, e, component.AgentComponent.Kind(), &component.Agent{ID: info.ID, Name: name, Order: d.order, PivotOffset: opts.PivotOffset}),
		ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Transform: common.Transform{Location: opts.Position}}),
		ecs.Add(w, e, component.SignalsComponent.Kind(), &component.Signals{Set: gameplay.NewSignalSet(opts.Signals...)}),
		ecs.Add(w, e, component.PerceptionComponent.Kind(), &component.Perception{}),
		ecs.Add(w, e, component.ContextStateComponent.Kind(), &component.ContextState{}),
		ecs.Add(w, e, component.BehaviorComponent.Kind(), &component.Behavior{State: d.cfg.Tree.InitialState(w.Tick().Frame)}),
	}
	if err := errors.Join(components...); err != nil {
		ecs.DestroyEntity(w, e)
		return AgentInfo{}, err
	}
	d.agents[name] = e

	if d.operator == "" {
		d.setOperator(name)
	}
	d.logger.Info("director: agent spawned", "agent", name, "id", info.ID)
	d.logger.Debug("director: agent components", "agent", name, "components", ecs.ComponentsOf(w, e))
	return info, nil
}

// Despawn removes an agent. If it was the operator, the oldest remaining
// agent takes over. Rigs following it hold position until it returns.
func (d *Director) Despawn(name string) error {
	e, ok := d.agents[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	ecs.DestroyEntity(d.world, e)
	delete(d.agents, name)

	if d.operator == name {
		d.setOperator(d.oldestAgent())
	}
	d.logger.Info("director: agent despawned", "agent", name)
	return nil
}

// Agents returns spawned agent names in spawn order.
func (d *Director) Agents() []string {
	type entry struct {
		name  string
		order uint64
	}
	var list []entry
	for name, e := range d.agents {
		if a, ok := ecs.Get(d.world, e, component.AgentComponent.Kind()); ok {
			list = append(list, entry{name, a.Order})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].order < list[j].order })
	out := make([]string, len(list))
	for i, en := range list {
		out[i] = en.name
	}
	return out
}

// Operator returns the agent rigs follow by default.
func (d *Director) Operator() string {
	return d.operator
}

func (d *Director) oldestAgent() string {
	if names := d.Agents(); len(names) > 0 {
		return names[0]
	}
	return ""
}

func (d *Director) setOperator(name string) {
	if d.operator == name {
		return
	}
	d.logger.Info("director: operator changed", "from", d.operator, "to", name)
	d.operator = name
	d.modes.SetOperator(name)
}

// AddRig creates a camera rig. An empty follow frames the operator. The
// first rig added becomes active.
func (d *Director) AddRig(name, follow string, view common.Rotator) error {
	if _, ok := d.rigs[name]; ok {
		return fmt.Errorf("%w: %q", ErrRigExists, name)
	}
	if err := d.board.Register(name, d.world.Tick().Time); err != nil {
		return err
	}
	e := ecs.CreateEntity(d.world)
	if err := ecs.Add(d.world, e, component.CameraRigComponent.Kind(), &component.CameraRig{Name: name, Follow: follow, View: view}); err != nil {
		d.board.Unregister(name, d.world.Tick().Time)
		ecs.DestroyEntity(d.world, e)
		return err
	}
	d.rigs[name] = e
	return nil
}

// RemoveRig deletes a rig. Removing the active rig activates the oldest
// remaining one.
func (d *Director) RemoveRig(name string) error {
	e, ok := d.rigs[name]
	if !ok {
		return fmt.Errorf("%w: %q", camera.ErrUnknownRig, name)
	}
	ecs.DestroyEntity(d.world, e)
	delete(d.rigs, name)
	d.board.Unregister(name, d.world.Tick().Time)
	return nil
}

// SwitchTo activates a rig, subject to the switch lock and the rig
// cooldown measured in simulation time.
func (d *Director) SwitchTo(name string) (bool, error) {
	return d.board.SwitchTo(name, d.world.Tick().Time)
}

// ActiveRig returns the active rig name.
func (d *Director) ActiveRig() string {
	return d.board.Active()
}

// OnActiveRigChange registers fn for active rig changes.
func (d *Director) OnActiveRigChange(fn func(camera.ActiveChange)) {
	d.board.OnChange(fn)
}

// Tick applies in and runs the pipeline once.
func (d *Director) Tick(ctx context.Context, in TickInput) (TickOutput, error) {
	if err := ctx.Err(); err != nil {
		return TickOutput{}, err
	}
	if math.IsNaN(in.DT) || math.IsInf(in.DT, 0) || in.DT < 0 {
		return TickOutput{}, fmt.Errorf("%w: %v", ErrInvalidDT, in.DT)
	}

	_, span := d.tracer.Start(ctx, "director.tick")
	defer span.End()

	if err := d.apply(in); err != nil {
		span.RecordError(err)
		return TickOutput{}, err
	}

	tick := d.world.Advance(in.DT)
	d.world.Update()
	f := d.output.Last()

	out := TickOutput{
		Tick:      tick.Frame,
		Time:      tick.Time,
		Rigs:      f.Rigs,
		Agents:    f.Agents,
		Events:    f.Events,
		ActiveRig: d.board.Active(),
		Operator:  d.operator,
	}
	span.SetAttributes(
		attribute.Int64("cameraman.tick", int64(tick.Frame)),
		attribute.Int("cameraman.agents", len(out.Agents)),
		attribute.Int("cameraman.rigs", len(out.Rigs)),
		attribute.Int("cameraman.events", len(out.Events)),
		attribute.String("cameraman.active_rig", out.ActiveRig),
	)
	return out, nil
}

func (d *Director) apply(in TickInput) error {
	var errs []error
	check := func(field string, known map[string]ecs.Entity, names []string, sentinel error) {
		for _, name := range names {
			if _, ok := known[name]; !ok {
				errs = append(errs, fmt.Errorf("%s: %w: %q", field, sentinel, name))
			}
		}
	}
	check("signals", d.agents, sortedKeys(in.Signals), ErrUnknownAgent)
	check("perception", d.agents, sortedKeys(in.Perception), ErrUnknownAgent)
	check("positions", d.agents, sortedKeys(in.Positions), ErrUnknownAgent)
	check("views", d.rigs, sortedKeys(in.Views), camera.ErrUnknownRig)
	if err := errors.Join(errs...); err != nil {
		return err
	}

	w := d.world
	for name, set := range in.Signals {
		if sig, ok := ecs.Get(w, d.agents[name], component.SignalsComponent.Kind()); ok {
			sig.Set = set
		}
	}
	for name, snap := range in.Perception {
		if p, ok := ecs.Get(w, d.agents[name], component.PerceptionComponent.Kind()); ok {
			p.Snapshot = snap
		}
	}
	for name, pos := range in.Positions {
		if tr, ok := ecs.Get(w, d.agents[name], component.TransformComponent.Kind()); ok {
			tr.Location = pos
		}
	}
	for name, view := range in.Views {
		if rig, ok := ecs.Get(w, d.rigs[name], component.CameraRigComponent.Kind()); ok {
			rig.View = view
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
