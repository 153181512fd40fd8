package rig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemputer/chempiler/internal/graph"
)

var testPolicy = RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		[]*graph.Node{
			{ID: "flask_water", Type: graph.TypeFlask, MaxVolume: 100, CurrentVolume: 50},
			{ID: "waste", Type: graph.TypeWaste, MaxVolume: 500},
			{ID: "valve1", Type: graph.TypeValve, Pump: "pump1"},
			{ID: "pump1", Type: graph.TypePump, MaxVolume: 10},
			{ID: "reactor_stirrer", Type: graph.TypeStirrer, Model: "ika_ret"},
			{ID: "overhead", Type: graph.TypeStirrer, Model: "rzr_2052"},
			{ID: "chiller1", Type: graph.TypeChiller, Model: "cf41"},
			{ID: "rotavap1", Type: graph.TypeRotavap, Model: "ika_rv10"},
			{ID: "vacuum1", Type: graph.TypeVacuum},
		},
		[]*graph.Edge{
			{From: "flask_water", To: "valve1", Backbone: true, ToPort: 1},
			{From: "valve1", To: "waste", Backbone: true, FromPort: 2},
			{From: "pump1", To: "valve1", ToPort: 0},
			{From: "rotavap1", To: "valve1", Backbone: true, ToPort: 3},
			{From: "reactor_stirrer", To: "valve1", Backbone: true, ToPort: 4},
			{From: "overhead", To: "valve1", Backbone: true, ToPort: 5},
		},
	)
	require.NoError(t, err)
	return g
}

func testRig(t *testing.T) (*Rig, *SimFactory) {
	t.Helper()
	f := NewSimFactory()
	r, err := Build(testGraph(t), f, testPolicy)
	require.NoError(t, err)
	return r, f
}

func TestBuildBindsEveryDeviceNode(t *testing.T) {
	r, _ := testRig(t)

	_, err := r.Pump("pump1")
	require.NoError(t, err)
	_, err = r.Valve("valve1")
	require.NoError(t, err)
	_, err = r.Stirrer("reactor_stirrer")
	require.NoError(t, err)
	_, err = r.Chiller("chiller1")
	require.NoError(t, err)
	_, err = r.Rotavap("rotavap1")
	require.NoError(t, err)
	_, err = r.Vacuum("vacuum1")
	require.NoError(t, err)
}

func TestLookupUnknownNodeIsDeviceNotFound(t *testing.T) {
	r, _ := testRig(t)

	_, err := r.Stirrer("flask_water")
	require.Error(t, err)
	assert.True(t, IsDeviceNotFound(err))
	assert.Contains(t, err.Error(), "flask_water")
}

func TestPumpClampsVolumeAndSpeed(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	p, err := r.Pump("pump1")
	require.NoError(t, err)

	// 25 mL into a 10 mL syringe at an impossible speed.
	require.NoError(t, p.Aspirate(ctx, 25, 900))
	assert.Equal(t, 10.0, p.Held())
	assert.Equal(t, 10.0, f.Pumps["pump1"].Position)

	require.NoError(t, p.Dispense(ctx, 50))
	assert.Equal(t, 0.0, p.Held())
	assert.Equal(t, 0.0, f.Pumps["pump1"].Position)
}

func TestStirrerClampsToModelEnvelope(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	s, err := r.Stirrer("reactor_stirrer")
	require.NoError(t, err)

	require.NoError(t, s.SetTemp(ctx, 500))
	assert.Equal(t, 340.0, f.Stirrers["reactor_stirrer"].Setpoint)

	require.NoError(t, s.SetRPM(ctx, 5000))
	assert.Equal(t, 1700, f.Stirrers["reactor_stirrer"].Rate)
}

func TestHeatOnStirOnlyModelIsSafetyViolation(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	s, err := r.Stirrer("overhead")
	require.NoError(t, err)

	err = s.Heat(ctx)
	require.Error(t, err)
	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeSafetyViolation, de.Code)
	assert.False(t, f.Stirrers["overhead"].Heating)

	require.Error(t, s.SetTemp(ctx, 50))
	require.NoError(t, s.Stir(ctx))
	assert.True(t, f.Stirrers["overhead"].Stirring)
}

func TestRetryRecoversFromTransientFaults(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	f.Stirrers["reactor_stirrer"].FailNext = 2

	s, err := r.Stirrer("reactor_stirrer")
	require.NoError(t, err)
	require.NoError(t, s.Stir(ctx))
	assert.True(t, f.Stirrers["reactor_stirrer"].Stirring)
}

func TestRetryExhaustionIsCommunicationError(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	f.Stirrers["reactor_stirrer"].FailNext = 3

	s, err := r.Stirrer("reactor_stirrer")
	require.NoError(t, err)

	err = s.Stir(ctx)
	require.Error(t, err)
	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeCommunication, de.Code)
}

func TestBuildNormalizesZeroRetryPolicy(t *testing.T) {
	// A zero Attempts budget must fall back to the default, not wrap
	// around into unbounded retries.
	f := NewSimFactory()
	r, err := Build(testGraph(t), f, RetryPolicy{InitialBackoff: time.Millisecond})
	require.NoError(t, err)

	f.Stirrers["reactor_stirrer"].FailNext = 10

	s, err := r.Stirrer("reactor_stirrer")
	require.NoError(t, err)

	err = s.Stir(context.Background())
	require.Error(t, err)
	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeCommunication, de.Code)
	// The default budget consumed exactly its attempts from the fault
	// counter.
	assert.Equal(t, 10-int(DefaultRetryPolicy.Attempts), f.Stirrers["reactor_stirrer"].FailNext)
}

func TestChillerRampClamps(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	c, err := r.Chiller("chiller1")
	require.NoError(t, err)

	require.NoError(t, c.Ramp(ctx, 120, -80))
	assert.Equal(t, -40.0, f.Chillers["chiller1"].Setpoint)
	assert.Equal(t, -40.0, c.State().Temperature)
}

func TestVacuumVentResetsSetpoint(t *testing.T) {
	r, f := testRig(t)
	ctx := context.Background()

	v, err := r.Vacuum("vacuum1")
	require.NoError(t, err)

	require.NoError(t, v.Init(ctx))
	require.NoError(t, v.SetSetpoint(ctx, 80))
	require.NoError(t, v.Start(ctx))
	assert.True(t, f.Vacuums["vacuum1"].Running)
	assert.Equal(t, 80, v.State().VacuumSetpoint)

	require.NoError(t, v.Vent(ctx))
	assert.False(t, v.State().Running)
	assert.Equal(t, maxVacuumSetpoint, v.State().VacuumSetpoint)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	r, _ := testRig(t)
	ctx := context.Background()

	s, err := r.Stirrer("reactor_stirrer")
	require.NoError(t, err)
	require.NoError(t, s.Stir(ctx))
	require.NoError(t, s.SetTemp(ctx, 65))

	p, err := r.Pump("pump1")
	require.NoError(t, err)
	require.NoError(t, p.Aspirate(ctx, 5, 50))

	r.Graph().UpdateVolumes("flask_water", "waste", 20)

	snap := r.Snapshot()
	assert.Equal(t, 30.0, snap["flask_water"].Volume)
	assert.Equal(t, 20.0, snap["waste"].Volume)
	assert.Equal(t, 5.0, snap["pump1"].Volume)
	assert.True(t, snap["reactor_stirrer"].Stirring)
	assert.Equal(t, 65.0, snap["reactor_stirrer"].Temperature)

	// A fresh rig restored from the snapshot reports identical state.
	fresh, err := Build(testGraph(t), NewSimFactory(), testPolicy)
	require.NoError(t, err)
	fresh.Restore(snap)
	assert.Equal(t, snap, fresh.Snapshot())
}
