package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/cameraman/gameplay"
)

func testGlobal() Profile {
	return Profile{ArmLength: 400, FOV: 90, PitchMin: -60, PitchMax: 40, LagSpeed: 8, CollisionPadding: 12}
}

func newTestTable(t *testing.T) *ProfileTable {
	t.Helper()
	global := testGlobal()
	platforming := global
	platforming.ArmLength = 300
	combatLock := global
	combatLock.ArmLength = 220
	combatLock.FOV = 75

	table, err := NewProfileTable(TableConfig{
		Global:   &global,
		Contexts: map[gameplay.Context]Profile{gameplay.Platforming: platforming},
		Entries:  map[Key]Profile{{Context: gameplay.Combat, Leaf: "lock_on"}: combatLock},
		Aliases:  DefaultAliases(),
	})
	require.NoError(t, err)
	return table
}

func TestResolveTiers(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name string
		ctx  gameplay.Context
		leaf string
		arm  float64
		tier Tier
	}{
		{"exact entry", gameplay.Combat, "lock_on", 220, TierExact},
		{"platforming default for Idle", gameplay.Platforming, "Idle", 300, TierContext},
		{"global for unknown leaf", gameplay.Combat, "Idle", 400, TierGlobal},
		{"global for side scrolling", gameplay.SideScrolling, "lock_on", 400, TierGlobal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, tier := table.Resolve(tc.ctx, tc.leaf, nil)
			assert.Equal(t, tc.arm, p.ArmLength)
			assert.Equal(t, tc.tier, tier)
		})
	}
}

func TestResolveIsTotal(t *testing.T) {
	table := newTestTable(t)
	leaves := []string{"", "Idle", "lock_on", "unknown", "\x00"}
	for _, c := range append(gameplay.Contexts, gameplay.Context(200)) {
		for _, leaf := range leaves {
			p, _ := table.Resolve(c, leaf, map[string]float64{"fov": 500, "arm_length": -3})
			assert.GreaterOrEqual(t, p.ArmLength, table.MinArmLength())
			assert.Greater(t, p.FOV, 0.0)
			assert.Less(t, p.FOV, 180.0)
			assert.LessOrEqual(t, p.PitchMin, p.PitchMax)
		}
	}
}

func TestResolveOverridesFieldByField(t *testing.T) {
	table := newTestTable(t)

	p, tier := table.Resolve(gameplay.Combat, "lock_on", map[string]float64{
		"closeRange": 150,
		"lag_speed":  2,
		"unrelated":  99,
	})
	assert.Equal(t, TierExact, tier)
	assert.Equal(t, 150.0, p.ArmLength)
	assert.Equal(t, 2.0, p.LagSpeed)
	assert.Equal(t, 75.0, p.FOV, "untouched fields keep the table value")
	assert.Equal(t, 12.0, p.CollisionPadding)
}

func TestResolveCanonicalBeatsAlias(t *testing.T) {
	table := newTestTable(t)
	p, _ := table.Resolve(gameplay.Platforming, "Idle", map[string]float64{"closeRange": 150, "arm_length": 500})
	assert.Equal(t, 500.0, p.ArmLength)
}

func TestNewProfileTableValidation(t *testing.T) {
	_, err := NewProfileTable(TableConfig{})
	require.ErrorIs(t, err, ErrNoGlobalProfile)

	global := testGlobal()
	bad := global
	bad.FOV = 0
	bad.PitchMin = 50
	_, err = NewProfileTable(TableConfig{
		Global:   &global,
		Contexts: map[gameplay.Context]Profile{gameplay.Combat: bad},
		Aliases:  map[string]Field{"zoom": "zoomies"},
	})
	require.ErrorIs(t, err, ErrInvalidProfile)
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "context combat")
}

func TestNewProfileTableRejectsFOVOutsideClampRange(t *testing.T) {
	for _, fov := range []float64{MinFOV - 1, MaxFOV + 5} {
		global := testGlobal()
		global.FOV = fov
		_, err := NewProfileTable(TableConfig{Global: &global})
		require.ErrorIs(t, err, ErrInvalidProfile, "fov %v", fov)
	}

	for _, fov := range []float64{MinFOV, MaxFOV} {
		global := testGlobal()
		global.FOV = fov
		table, err := NewProfileTable(TableConfig{Global: &global})
		require.NoError(t, err, "fov %v", fov)
		p, _ := table.Resolve(gameplay.Platforming, "Idle", nil)
		assert.Equal(t, fov, p.FOV, "authored bounds resolve unchanged")
	}
}

func TestPatchApply(t *testing.T) {
	arm := 250.0
	p := Patch{ArmLength: &arm}.Apply(testGlobal())
	assert.Equal(t, 250.0, p.ArmLength)
	assert.Equal(t, 90.0, p.FOV)
}
