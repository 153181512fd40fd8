package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backboneRig is the canonical small rig: two valve clusters bridged by
// a backbone edge.
func backboneRig(t *testing.T) *Graph {
	t.Helper()
	g, err := New(
		[]*Node{
			{ID: "flask_water", Type: TypeFlask, MaxVolume: 100, CurrentVolume: 50},
			{ID: "waste", Type: TypeWaste, MaxVolume: 500},
			{ID: "flask_b", Type: TypeFlask, MaxVolume: 100},
			{ID: "valve1", Type: TypeValve, Pump: "pump1"},
			{ID: "pump1", Type: TypePump, MaxVolume: 10},
			{ID: "valve2", Type: TypeValve, Pump: "pump2"},
			{ID: "pump2", Type: TypePump, MaxVolume: 5},
		},
		[]*Edge{
			{From: "flask_water", To: "valve1", Backbone: true, ToPort: 1},
			{From: "waste", To: "valve1", Backbone: true, ToPort: 2},
			{From: "valve1", To: "valve2", Backbone: true, FromPort: 5, ToPort: 5},
			{From: "flask_b", To: "valve2", Backbone: true, ToPort: 1},
			{From: "pump1", To: "valve1", ToPort: 0},
			{From: "pump2", To: "valve2", ToPort: 0},
		},
	)
	require.NoError(t, err)
	return g
}

func TestNewRejectsDuplicateNodeIDs(t *testing.T) {
	_, err := New(
		[]*Node{
			{ID: "flask_a", Type: TypeFlask},
			{ID: "flask_a", Type: TypeFlask},
		},
		nil,
	)
	require.Error(t, err)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeInvalidTopology, ge.Code)
}

func TestNewRejectsEdgeToUndefinedNode(t *testing.T) {
	_, err := New(
		[]*Node{{ID: "flask_a", Type: TypeFlask}},
		[]*Edge{{From: "flask_a", To: "ghost"}},
	)
	require.Error(t, err)
}

func TestNewRejectsSelfLoop(t *testing.T) {
	_, err := New(
		[]*Node{{ID: "flask_a", Type: TypeFlask}},
		[]*Edge{{From: "flask_a", To: "flask_a"}},
	)
	require.Error(t, err)
}

func TestNewRejectsValveWithoutPump(t *testing.T) {
	_, err := New(
		[]*Node{{ID: "valve1", Type: TypeValve}},
		nil,
	)
	require.Error(t, err)

	// Pump binding must reference an actual pump node.
	_, err = New(
		[]*Node{
			{ID: "valve1", Type: TypeValve, Pump: "flask_a"},
			{ID: "flask_a", Type: TypeFlask},
		},
		nil,
	)
	require.Error(t, err)
}

func TestNewRejectsPumpWithoutCapacity(t *testing.T) {
	// A zero-capacity syringe would make every route through its valve
	// chunk to nothing and never finish a MOVE.
	_, err := New(
		[]*Node{
			{ID: "flask_a", Type: TypeFlask},
			{ID: "valve1", Type: TypeValve, Pump: "pump1"},
			{ID: "pump1", Type: TypePump},
		},
		[]*Edge{
			{From: "flask_a", To: "valve1", Backbone: true, ToPort: 1},
			{From: "pump1", To: "valve1", Backbone: true, ToPort: 0},
		},
	)
	require.Error(t, err)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeInvalidTopology, ge.Code)
	assert.Equal(t, "pump1", ge.Node)
}

func TestNewRejectsDisconnectedBackbone(t *testing.T) {
	// flask_b has no backbone path to the others.
	_, err := New(
		[]*Node{
			{ID: "flask_a", Type: TypeFlask},
			{ID: "flask_b", Type: TypeFlask},
			{ID: "valve1", Type: TypeValve, Pump: "pump1"},
			{ID: "pump1", Type: TypePump, MaxVolume: 10},
		},
		[]*Edge{
			{From: "flask_a", To: "valve1", Backbone: true},
			{From: "flask_b", To: "valve1"}, // tubing exists but is not backbone
		},
	)
	require.Error(t, err)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeDisconnectedBackbone, ge.Code)
}

func TestNodeLookup(t *testing.T) {
	g := backboneRig(t)

	n, err := g.Node("flask_water")
	require.NoError(t, err)
	assert.Equal(t, TypeFlask, n.Type)
	assert.True(t, n.HoldsLiquid())

	_, err = g.Node("flask_acetone")
	require.Error(t, err)
	assert.True(t, IsUnknownNode(err))
}

func TestNeighborsAreLexicographic(t *testing.T) {
	g := backboneRig(t)
	assert.Equal(t, []string{"flask_water", "pump1", "valve2", "waste"}, g.Neighbors("valve1"))
}

func TestNodesOfType(t *testing.T) {
	g := backboneRig(t)
	pumps := g.NodesOfType(TypePump)
	require.Len(t, pumps, 2)
	assert.Equal(t, "pump1", pumps[0].ID)
	assert.Equal(t, "pump2", pumps[1].ID)
}

func TestAttachedValve(t *testing.T) {
	g := backboneRig(t)

	v, err := g.AttachedValve("flask_water")
	require.NoError(t, err)
	assert.Equal(t, "valve1", v.ID)
}

func TestVolumeBookkeepingClampsAtZero(t *testing.T) {
	g := backboneRig(t)

	g.UpdateVolumes("flask_water", "waste", 30)
	vols := g.Volumes()
	assert.Equal(t, 20.0, vols["flask_water"])
	assert.Equal(t, 30.0, vols["waste"])

	// Overdraw clamps the source at empty; the destination still
	// accounts the commanded volume.
	g.UpdateVolumes("flask_water", "waste", 100)
	vols = g.Volumes()
	assert.Equal(t, 0.0, vols["flask_water"])
	assert.Equal(t, 130.0, vols["waste"])
}

func TestRestoreVolumes(t *testing.T) {
	g := backboneRig(t)

	g.RestoreVolumes(map[string]float64{
		"flask_water": 12,
		"waste":       3,
		"ghost":       99, // ignored
	})
	vols := g.Volumes()
	assert.Equal(t, 12.0, vols["flask_water"])
	assert.Equal(t, 3.0, vols["waste"])
}
