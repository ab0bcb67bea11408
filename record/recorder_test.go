package record

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/director"
	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/system"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/statetree"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func sampleTick(tick uint64, arm float64) director.TickOutput {
	return director.TickOutput{
		Tick:      tick,
		Time:      float64(tick) / 60,
		ActiveRig: "main",
		Rigs: []system.RigView{
			{Name: "main", Target: "hero", Location: common.Vec3{X: -arm}, FOV: 90, ArmLength: arm, Tier: "context", Context: "combat", Leaf: "melee"},
			{Name: "overhead", Target: "hero", ArmLength: 900, Tier: "global"},
		},
		Agents: []system.AgentView{{
			ID:      "id-hero",
			Name:    "hero",
			Context: gameplay.Combat,
			Leaf:    "melee",
			Path:    []statetree.NodeID{"combat", "melee"},
			Params:  statetree.Params{"arm_length": arm},
		}},
		Events: []ecs.Event{
			{Type: system.EventContextChanged, Data: system.ContextChanged{Agent: "hero", From: gameplay.Platforming, To: gameplay.Combat}},
			{Type: system.EventBehavior, Data: system.BehaviorEvent{Agent: "hero", Node: "melee", Name: "melee.enter"}},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestWriteWithoutRun(t *testing.T) {
	r := openTemp(t)
	assert.ErrorIs(t, r.Write(context.Background(), sampleTick(1, 300)), ErrNoRun)
}

func TestWriteAndQuery(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	run, err := r.StartRun(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, run, r.Run())

	require.NoError(t, r.Write(ctx, sampleTick(1, 300)))
	require.NoError(t, r.Write(ctx, sampleTick(2, 280)))

	frames, err := r.RigFrames(ctx, run, "main")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, uint64(2), frames[1].Tick)
	assert.Equal(t, 280.0, frames[1].ArmLength)
	assert.Equal(t, -280.0, frames[1].X)
	assert.True(t, frames[0].Active)
	assert.Equal(t, "context", frames[0].Tier)

	other, err := r.RigFrames(ctx, run, "overhead")
	require.NoError(t, err)
	require.Len(t, other, 2)
	assert.False(t, other[0].Active)

	agents, err := r.AgentFrames(ctx, run, "hero")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "combat", agents[0].Context)
	assert.Equal(t, statetree.NodeID("melee"), agents[0].Leaf)
	assert.Equal(t, []statetree.NodeID{"combat", "melee"}, agents[0].Path)
	assert.Equal(t, statetree.Params{"arm_length": 280}, agents[1].Params)

	counts, err := r.EventCounts(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{system.EventContextChanged: 2, system.EventBehavior: 2}, counts)
}

func TestDuplicateTickRollsBack(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)
	run, err := r.StartRun(ctx, "dup")
	require.NoError(t, err)

	require.NoError(t, r.Write(ctx, sampleTick(1, 300)))
	require.Error(t, r.Write(ctx, sampleTick(1, 250)))

	frames, err := r.RigFrames(ctx, run, "main")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 300.0, frames[0].ArmLength)

	counts, err := r.EventCounts(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[system.EventBehavior])
}

func TestRunsAreSeparate(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	first, err := r.StartRun(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, r.Write(ctx, sampleTick(1, 300)))
	second, err := r.StartRun(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, r.Write(ctx, sampleTick(1, 300)))

	runs, err := r.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)

	frames, err := r.RigFrames(ctx, first, "main")
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestClosed(t *testing.T) {
	r := openTemp(t)
	require.NoError(t, r.Close())
	_, err := r.StartRun(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, r.Close())
}
