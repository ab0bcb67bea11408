package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
)

func levelObstacles() []Obstacle {
	return []Obstacle{
		{Name: "pillar", Kind: "box", Min: common.Vec3{X: 100, Y: -20, Z: 0}, Max: common.Vec3{X: 140, Y: 20, Z: 200}},
		{Name: "low_wall", Kind: "box", Min: common.Vec3{X: -200, Y: -50, Z: 0}, Max: common.Vec3{X: -180, Y: 50, Z: 40}},
	}
}

func tracers(t *testing.T) map[string]camera.Tracer {
	t.Helper()
	out := map[string]camera.Tracer{}
	for _, backend := range []string{BackendSpace, BackendBoxes} {
		tr, err := Build(backend, levelObstacles())
		require.NoError(t, err)
		out[backend] = tr
	}
	return out
}

func TestTraceHitsFirstSolid(t *testing.T) {
	for backend, tr := range tracers(t) {
		t.Run(backend, func(t *testing.T) {
			hit, ok := tr.Trace(common.Vec3{Z: 100}, common.Vec3{X: 400, Z: 100})
			require.True(t, ok)
			assert.InDelta(t, 100, hit.Distance, 1e-6)
			assert.Equal(t, "pillar", hit.Shape)
			assert.InDelta(t, 100, hit.Point.X, 1e-6)
		})
	}
}

func TestTracePassesOverLowSolid(t *testing.T) {
	for backend, tr := range tracers(t) {
		t.Run(backend, func(t *testing.T) {
			_, ok := tr.Trace(common.Vec3{Z: 100}, common.Vec3{X: -400, Z: 100})
			assert.False(t, ok)

			hit, ok := tr.Trace(common.Vec3{Z: 20}, common.Vec3{X: -400, Z: 20})
			require.True(t, ok)
			assert.InDelta(t, 180, hit.Distance, 1e-6)
		})
	}
}

func TestTraceFromInsideSolid(t *testing.T) {
	for backend, tr := range tracers(t) {
		t.Run(backend, func(t *testing.T) {
			hit, ok := tr.Trace(common.Vec3{X: 120, Z: 50}, common.Vec3{X: 400, Z: 50})
			require.True(t, ok)
			assert.Equal(t, 0.0, hit.Distance)
		})
	}
}

func TestTraceLeavingSolidHitsAtStart(t *testing.T) {
	for backend, tr := range tracers(t) {
		t.Run(backend, func(t *testing.T) {
			hit, ok := tr.Trace(common.Vec3{X: 120, Z: 50}, common.Vec3{X: -100, Z: 50})
			require.True(t, ok)
			assert.Equal(t, 0.0, hit.Distance)
			assert.Equal(t, "pillar", hit.Shape)
		})
	}
}

func TestTraceMisses(t *testing.T) {
	for backend, tr := range tracers(t) {
		t.Run(backend, func(t *testing.T) {
			_, ok := tr.Trace(common.Vec3{Y: 100, Z: 100}, common.Vec3{X: 400, Y: 100, Z: 100})
			assert.False(t, ok)
			_, ok = tr.Trace(common.Vec3{}, common.Vec3{})
			assert.False(t, ok)
		})
	}
}

func TestBoxesSphere(t *testing.T) {
	b := &Boxes{Spheres: []Sphere{{Name: "rock", Center: common.Vec3{X: 50}, Radius: 10}}}
	hit, ok := b.Trace(common.Vec3{}, common.Vec3{X: 100})
	require.True(t, ok)
	assert.InDelta(t, 40, hit.Distance, 1e-9)
	assert.Equal(t, "rock", hit.Shape)
}

func TestBuildRejectsBadObstacles(t *testing.T) {
	_, err := Build(BackendSpace, []Obstacle{
		{Name: "a", Kind: "blob"},
		{Name: "b", Kind: "cylinder"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "blob"`)
	assert.Contains(t, err.Error(), `cylinder "b"`)

	_, err = Build("raycaster", nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestSpaceCylinderAndWall(t *testing.T) {
	s := NewSpace()
	s.AddCylinder("post", common.Vec3{X: 60}, 10, 100)
	s.AddWall("fence", common.Vec3{X: 30, Y: -100}, common.Vec3{X: 30, Y: 100}, 4, 50)
	assert.Equal(t, 2, s.Len())

	hit, ok := s.Trace(common.Vec3{Z: 80}, common.Vec3{X: 200, Z: 80})
	require.True(t, ok)
	assert.Equal(t, "post", hit.Shape)
	assert.InDelta(t, 50, hit.Distance, 1e-6)

	hit, ok = s.Trace(common.Vec3{Z: 10}, common.Vec3{X: 200, Z: 10})
	require.True(t, ok)
	assert.Equal(t, "fence", hit.Shape)
	assert.InDelta(t, 28, hit.Distance, 1e-6)
}
