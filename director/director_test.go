package director

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/perception"
	"github.com/milk9111/cameraman/prefabs"
	"github.com/milk9111/cameraman/statetree"
)

func ptr[T any](v T) *T { return &v }

func testBundle() prefabs.Bundle {
	return prefabs.Bundle{
		Behavior: statetree.RawTree{
			Fallback:     "Idle",
			MinHoldTicks: 2,
			Nodes: []statetree.RawNode{
				{
					ID:       "Fight",
					When:     []map[string]any{{"context": "combat"}, {"sees_tag": "threat"}},
					Params:   map[string]float64{"closeRange": 250},
					OnEnter:  []map[string]any{{"emit": "fight"}},
					Children: []statetree.RawNode{{ID: "Close", When: []map[string]any{{"threat_within": 100}}, Params: map[string]float64{"fov": 70}}},
				},
				{ID: "Idle", When: []map[string]any{{"never": true}}, Params: map[string]float64{"patience": 3}},
			},
		},
		Cameras: prefabs.CamerasSpec{
			MinArmLength: 20,
			Global:       &camera.Profile{ArmLength: 400, FOV: 90, PitchMin: -60, PitchMax: 40, LagSpeed: 5, CollisionPadding: 10},
			Contexts: map[string]camera.Patch{
				"platforming":    {ArmLength: ptr(300.0)},
				"side_scrolling": {ArmLength: ptr(700.0), FOV: ptr(60.0)},
			},
			Entries: []prefabs.CameraEntrySpec{
				{Context: "combat", Leaf: "Fight", Profile: camera.Patch{FOV: ptr(80.0)}},
			},
		},
		Context: prefabs.ContextSpec{Rules: []prefabs.RuleSpec{
			{Context: "combat", Require: []string{"combat_volume"}},
			{Context: "side_scrolling", Require: []string{"constrained_track"}, Forbid: []string{"free_traversal"}},
			{Context: "platforming", Require: []string{"free_traversal"}, Forbid: []string{"constrained_track"}},
		}},
	}
}

func newDirector(t *testing.T, mutate func(*prefabs.Bundle)) *Director {
	t.Helper()
	b := testBundle()
	if mutate != nil {
		mutate(&b)
	}
	cfg, err := Compile(b)
	require.NoError(t, err)
	d, err := New(cfg, WithTracerProvider(noop.NewTracerProvider()))
	require.NoError(t, err)
	return d
}

func tick(t *testing.T, d *Director, in TickInput) TickOutput {
	t.Helper()
	if in.DT == 0 {
		in.DT = 1.0 / 60
	}
	out, err := d.Tick(context.Background(), in)
	require.NoError(t, err)
	return out
}

func threat(x float64) perception.Snapshot {
	return perception.Snapshot{Entities: []perception.Entity{{ID: "t", Position: common.Vec3{X: x}, Visible: true, Tags: []string{"threat"}}}}
}

func TestLoadConfigFromEmbeddedPrefabs(t *testing.T) {
	prefabs.SetOverrideDir("")
	t.Cleanup(func() { prefabs.SetOverrideDir("prefabs") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, statetree.NodeID("idle"), cfg.Tree.Fallback())
	assert.Equal(t, 3, cfg.Tree.MinHoldTicks())
	assert.Equal(t, 0.15, cfg.SwitchLock)
	assert.Equal(t, "space", cfg.TracerBackend)

	p, tier := cfg.Profiles.Resolve(gameplay.Platforming, "Idle", nil)
	assert.Equal(t, 300.0, p.ArmLength)
	assert.Equal(t, camera.TierContext, tier)
}

func TestCompileReportsEveryFile(t *testing.T) {
	b := testBundle()
	b.Behavior.Fallback = ""
	b.Cameras.Global = nil
	b.Context.Rules[0].Context = "racing"
	b.Tuning.SwitchLock = ptr(-1.0)

	_, err := Compile(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, statetree.ErrNoFallback)
	assert.ErrorIs(t, err, camera.ErrNoGlobalProfile)
	assert.ErrorIs(t, err, gameplay.ErrUnknownContext)
	assert.Contains(t, err.Error(), prefabs.TuningFile)
}

func TestCompileEntriesPatchContextDefaults(t *testing.T) {
	cfg, err := Compile(testBundle())
	require.NoError(t, err)

	p, tier := cfg.Profiles.Lookup(gameplay.Combat, "Fight")
	assert.Equal(t, camera.TierExact, tier)
	assert.Equal(t, 400.0, p.ArmLength, "combat has no default, so the entry patches the global")
	assert.Equal(t, 80.0, p.FOV)
}

func TestPlatformingIdleUsesContextDefault(t *testing.T) {
	d := newDirector(t, nil)
	_, err := d.Spawn("hero", SpawnOptions{Signals: []string{gameplay.SignalFreeTraversal}})
	require.NoError(t, err)
	require.NoError(t, d.AddRig("main", "", common.Rotator{}))

	out := tick(t, d, TickInput{})
	agent := out.Agents[0]
	assert.Equal(t, gameplay.Platforming, agent.Context)
	assert.Equal(t, statetree.NodeID("Idle"), agent.Leaf)

	view, ok := out.Active()
	require.True(t, ok)
	assert.Equal(t, 300.0, view.ArmLength)
	assert.Equal(t, "context", view.Tier)
}

func TestNoRootConditionUsesFallbackDefaults(t *testing.T) {
	d := newDirector(t, nil)
	_, err := d.Spawn("hero", SpawnOptions{})
	require.NoError(t, err)

	out := tick(t, d, TickInput{Perception: map[string]perception.Snapshot{"hero": {}}})
	agent := out.Agents[0]
	assert.True(t, agent.UsedFallback)
	assert.Equal(t, statetree.NodeID("Idle"), agent.Leaf)
	assert.Equal(t, statetree.Params{"patience": 3}, agent.Params)
}

func TestSnapFromSideScrollingToCombat(t *testing.T) {
	d := newDirector(t, func(b *prefabs.Bundle) {
		b.Tuning.SnapOnContextChange = true
		b.Behavior.MinHoldTicks = 1
	})
	_, err := d.Spawn("hero", SpawnOptions{Position: common.Vec3{X: 10, Y: 20}})
	require.NoError(t, err)
	view := common.Rotator{Pitch: -20, Yaw: 90}
	require.NoError(t, d.AddRig("main", "hero", view))

	side := TickInput{Signals: map[string]gameplay.SignalSet{"hero": gameplay.NewSignalSet(gameplay.SignalConstrainedTrack)}}
	for i := 0; i < 30; i++ {
		tick(t, d, side)
	}

	out := tick(t, d, TickInput{
		Signals:    map[string]gameplay.SignalSet{"hero": gameplay.NewSignalSet(gameplay.SignalCombatVolume)},
		Perception: map[string]perception.Snapshot{"hero": threat(500)},
	})
	agent := out.Agents[0]
	require.Equal(t, gameplay.Combat, agent.Context)
	require.Equal(t, statetree.NodeID("Fight"), agent.Leaf)

	got, _ := out.Active()
	profile, _ := d.Config().Profiles.Resolve(gameplay.Combat, "Fight", agent.Params)
	want := camera.Target(profile, camera.Frame{Pivot: common.Vec3{X: 10, Y: 20}, View: view})
	assert.True(t, got.Snapped)
	assert.Equal(t, 250.0, got.ArmLength)
	assert.Equal(t, 80.0, got.FOV)
	assert.InDelta(t, want.Location.X, got.Location.X, 1e-9)
	assert.InDelta(t, want.Location.Y, got.Location.Y, 1e-9)
	assert.InDelta(t, want.Location.Z, got.Location.Z, 1e-9)
}

func TestWithoutSnapContextChangeBlends(t *testing.T) {
	d := newDirector(t, nil)
	_, err := d.Spawn("hero", SpawnOptions{Signals: []string{gameplay.SignalConstrainedTrack}})
	require.NoError(t, err)
	require.NoError(t, d.AddRig("main", "", common.Rotator{}))
	tick(t, d, TickInput{})

	out := tick(t, d, TickInput{Signals: map[string]gameplay.SignalSet{"hero": gameplay.NewSignalSet(gameplay.SignalCombatVolume)}})
	got, _ := out.Active()
	assert.False(t, got.Snapped)
	assert.Less(t, got.ArmLength, 700.0)
	assert.Greater(t, got.ArmLength, 400.0)
}

func TestOperatorHandOff(t *testing.T) {
	d := newDirector(t, nil)
	a, err := d.Spawn("alpha", SpawnOptions{})
	require.NoError(t, err)
	_, err = uuid.Parse(a.ID)
	require.NoError(t, err)
	_, err = d.Spawn("bravo", SpawnOptions{})
	require.NoError(t, err)
	_, err = d.Spawn("charlie", SpawnOptions{})
	require.NoError(t, err)
	_, err = d.Spawn("bravo", SpawnOptions{})
	assert.ErrorIs(t, err, ErrAgentExists)

	assert.Equal(t, "alpha", d.Operator())
	require.NoError(t, d.Despawn("bravo"))
	assert.Equal(t, "alpha", d.Operator())
	require.NoError(t, d.Despawn("alpha"))
	assert.Equal(t, "charlie", d.Operator())
	require.NoError(t, d.Despawn("charlie"))
	assert.Equal(t, "", d.Operator())
	assert.ErrorIs(t, d.Despawn("charlie"), ErrUnknownAgent)

	_, err = d.Spawn("delta", SpawnOptions{})
	require.NoError(t, err)
	assert.Equal(t, "delta", d.Operator())
}

func TestRigSurvivesRespawn(t *testing.T) {
	d := newDirector(t, nil)
	first, err := d.Spawn("hero", SpawnOptions{Signals: []string{gameplay.SignalFreeTraversal}})
	require.NoError(t, err)
	require.NoError(t, d.AddRig("main", "hero", common.Rotator{}))
	for i := 0; i < 10; i++ {
		tick(t, d, TickInput{})
	}

	require.NoError(t, d.Despawn("hero"))
	held, _ := tick(t, d, TickInput{}).Active()

	second, err := d.Spawn("hero", SpawnOptions{Position: common.Vec3{X: 1000}})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	out := tick(t, d, TickInput{})
	moved, _ := out.Active()
	assert.Equal(t, "hero", moved.Target)
	assert.Greater(t, moved.Location.X, held.Location.X, "blends toward the new body")
	assert.Less(t, moved.Location.X, 1000.0-300.0, "without snapping")
}

func TestSwitchToUsesSimulationTime(t *testing.T) {
	d := newDirector(t, nil)
	var changes []camera.ActiveChange
	d.OnActiveRigChange(func(c camera.ActiveChange) { changes = append(changes, c) })
	require.NoError(t, d.AddRig("a", "", common.Rotator{}))
	require.NoError(t, d.AddRig("b", "", common.Rotator{}))
	require.ErrorIs(t, d.AddRig("b", "", common.Rotator{}), ErrRigExists)

	ok, err := d.SwitchTo("b")
	require.NoError(t, err)
	assert.True(t, ok)

	tick(t, d, TickInput{DT: 0.05})
	_, err = d.SwitchTo("a")
	assert.ErrorIs(t, err, camera.ErrSwitchLocked)

	tick(t, d, TickInput{DT: 0.2})
	ok, err = d.SwitchTo("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", d.ActiveRig())

	require.NoError(t, d.RemoveRig("a"))
	assert.Equal(t, "b", d.ActiveRig())
	assert.Equal(t, []string{"a", "b", "a", "b"}, []string{changes[0].To, changes[1].To, changes[2].To, changes[3].To})
}

func TestReload(t *testing.T) {
	d := newDirector(t, nil)
	_, err := d.Spawn("hero", SpawnOptions{Signals: []string{gameplay.SignalCombatVolume}})
	require.NoError(t, err)
	in := TickInput{Perception: map[string]perception.Snapshot{"hero": threat(50)}}
	for i := 0; i < 3; i++ {
		tick(t, d, in)
	}
	require.Equal(t, statetree.NodeID("Close"), tick(t, d, in).Agents[0].Leaf)

	b := testBundle()
	b.Behavior.Nodes[0].Children = nil
	cfg, err := Compile(b)
	require.NoError(t, err)
	require.NoError(t, d.Reload(cfg))

	out := tick(t, d, in)
	assert.Equal(t, statetree.NodeID("Fight"), out.Agents[0].Leaf, "removed leaf re-enters the new tree at once")
	assert.Error(t, d.Reload(&Config{}))
}

func TestTickRejectsBadInput(t *testing.T) {
	d := newDirector(t, nil)
	_, err := d.Tick(context.Background(), TickInput{DT: -1})
	assert.ErrorIs(t, err, ErrInvalidDT)

	_, err = d.Spawn("hero", SpawnOptions{})
	require.NoError(t, err)
	_, err = d.Tick(context.Background(), TickInput{
		DT:        0.1,
		Positions: map[string]common.Vec3{"hero": {X: 50}, "ghost": {}},
		Views:     map[string]common.Rotator{"nowhere": {}},
	})
	assert.ErrorIs(t, err, ErrUnknownAgent)
	assert.ErrorIs(t, err, camera.ErrUnknownRig)

	out := tick(t, d, TickInput{})
	assert.Equal(t, uint64(1), out.Tick, "rejected ticks do not advance time")
	assert.Equal(t, 1.0/60, out.Time)
	require.NoError(t, d.AddRig("main", "hero", common.Rotator{}))
	view, _ := tick(t, d, TickInput{}).Active()
	assert.Less(t, view.Location.X, 0.0, "hero stayed at the origin")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Tick(ctx, TickInput{})
	assert.ErrorIs(t, err, context.Canceled)
}
