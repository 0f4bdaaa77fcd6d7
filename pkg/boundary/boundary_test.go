package boundary

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/study"
)

// meshOf builds a vertex-only mesh from positions.
func meshOf(ps ...v3.Vec) *kernel.Mesh {
	m := &kernel.Mesh{}
	for _, p := range ps {
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return m
}

// plateMesh is a 3x3 vertex grid in the y=0 plane; vertex i+3j sits at (i, 0, j).
func plateMesh() *kernel.Mesh {
	var ps []v3.Vec
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			ps = append(ps, v3.Vec{X: float64(i), Z: float64(j)})
		}
	}
	return meshOf(ps...)
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func assertVec(t *testing.T, want, got v3.Vec) {
	t.Helper()
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("vector mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Region analysis
// ---------------------------------------------------------------------------

func TestAnalyzeRegionSquare(t *testing.T) {
	md := AnalyzeRegion(plateMesh(), []int{0, 2, 8, 6})

	require.True(t, md.Valid, "errors: %v", md.Errors)
	assert.Len(t, md.Positions, 4)
	assert.InDelta(t, 4.0, md.Area, 1e-9)
	assertVec(t, v3.Vec{X: 1, Z: 1}, md.Centroid)
	assertVec(t, v3.Vec{X: 1, Z: 1}, md.AreaCentroid)
	assertVec(t, v3.Vec{Y: -1}, md.Normal)
	assertVec(t, v3.Vec{}, md.Min)
	assertVec(t, v3.Vec{X: 2, Z: 2}, md.Max)

	// Reversed winding flips the Newell normal.
	md = AnalyzeRegion(plateMesh(), []int{6, 8, 2, 0})
	assertVec(t, v3.Vec{Y: 1}, md.Normal)
}

func TestAnalyzeRegionAreaWeightedCentroid(t *testing.T) {
	// An extra vertex on the top edge pulls the arithmetic centroid but adds
	// no area.
	mesh := meshOf(
		v3.Vec{X: 0, Z: 0},
		v3.Vec{X: 2, Z: 0},
		v3.Vec{X: 2, Z: 2},
		v3.Vec{X: 1, Z: 2},
		v3.Vec{X: 0, Z: 2},
	)
	md := AnalyzeRegion(mesh, []int{0, 1, 2, 3, 4})
	require.True(t, md.Valid)
	assertVec(t, v3.Vec{X: 1, Z: 1.2}, md.Centroid)
	assertVec(t, v3.Vec{X: 1, Z: 1}, md.AreaCentroid)
	assert.InDelta(t, 4.0, md.Area, 1e-9)
}

func TestAnalyzeRegionCollinearFallsBack(t *testing.T) {
	md := AnalyzeRegion(plateMesh(), []int{0, 1, 2})
	assert.True(t, md.Valid)
	assert.Zero(t, md.Area)
	assertVec(t, md.Centroid, md.AreaCentroid)
	assertVec(t, DefaultNormal, md.Normal)
}

func TestAnalyzeRegionFewVertices(t *testing.T) {
	md := AnalyzeRegion(plateMesh(), []int{0, 4})
	assert.True(t, md.Valid)
	assertVec(t, v3.Vec{X: 0.5, Z: 0.5}, md.Centroid)
	assertVec(t, DefaultNormal, md.Normal)
}

func TestAnalyzeRegionInvalid(t *testing.T) {
	tests := []struct {
		name      string
		indices   []int
		positions int
	}{
		{"empty", nil, 0},
		{"all out of range", []int{99, -1}, 0},
		{"some out of range", []int{0, 2, 8, 42}, 3},
		{"coincident", []int{4, 4, 4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := AnalyzeRegion(plateMesh(), tt.indices)
			assert.False(t, md.Valid)
			assert.NotEmpty(t, md.Errors)
			assert.Len(t, md.Positions, tt.positions)
			assert.Zero(t, md.Area)
			assertVec(t, DefaultNormal, md.Normal)
		})
	}
}

func TestAnalyzeRegionNilMesh(t *testing.T) {
	md := AnalyzeRegion(nil, []int{0})
	assert.False(t, md.Valid)
}

// ---------------------------------------------------------------------------
// Marker extraction
// ---------------------------------------------------------------------------

func TestExtractDropsAnchorAtLoad(t *testing.T) {
	goals := []study.Goal{
		{Name: "wall", Kind: study.GoalAnchor, Elements: []int{0, 3, 6}},
		{Name: "tip", Kind: study.GoalLoad, Elements: []int{6}},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Loads, 1)
	assertVec(t, v3.Vec{Z: 2}, m.Loads[0].Position)
	require.Len(t, m.Anchors, 2)
	for _, a := range m.Anchors {
		assert.NotEqual(t, keyOf(m.Loads[0].Position), keyOf(a.Position))
	}
}

func TestExtractSplitsLoad(t *testing.T) {
	goals := []study.Goal{
		{Name: "edge", Kind: study.GoalLoad, Elements: []int{2, 5, 8, 7}, Params: study.LoadParams{Force: &v3.Vec{Y: -8}}},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Loads, 4)
	var total v3.Vec
	for _, l := range m.Loads {
		assertVec(t, v3.Vec{Y: -2}, l.Force)
		assert.True(t, l.Distributed)
		assert.Len(t, l.VertexIndices, 1)
		total = total.Add(l.Force)
	}
	assertVec(t, v3.Vec{Y: -8}, total)
	assert.Empty(t, m.Anchors)
}

func TestExtractSingleVertexLoadNotDistributed(t *testing.T) {
	goals := []study.Goal{{Name: "tip", Kind: study.GoalLoad, Elements: []int{8}, Params: study.LoadParams{FX: study.Float(3)}}}
	m := Extract(plateMesh(), goals)
	require.Len(t, m.Loads, 1)
	assert.False(t, m.Loads[0].Distributed)
	assertVec(t, v3.Vec{X: 3}, m.Loads[0].Force)
}

func TestExtractDefaults(t *testing.T) {
	goals := []study.Goal{
		{Name: "support", Kind: study.GoalAnchor},
		{Name: "weight", Kind: study.GoalLoad},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Anchors, 1)
	assertVec(t, v3.Vec{}, m.Anchors[0].Position)
	assert.Equal(t, [3]bool{true, true, true}, m.Anchors[0].Fixed)
	assert.Equal(t, "support", m.Anchors[0].Goal)

	require.Len(t, m.Loads, 1)
	assertVec(t, v3.Vec{X: 2, Z: 2}, m.Loads[0].Position)
	assertVec(t, study.DefaultLoadForce, m.Loads[0].Force)
	assert.False(t, m.Loads[0].Distributed)
}

func TestExtractDefaultLoadUsesGoalForce(t *testing.T) {
	goals := []study.Goal{
		{Name: "first", Kind: study.GoalLoad, Params: study.LoadParams{ForceZ: study.Float(-5)}},
		{Name: "second", Kind: study.GoalLoad, Params: study.LoadParams{ForceZ: study.Float(-50)}},
	}
	m := Extract(plateMesh(), goals)
	require.Len(t, m.Loads, 1)
	assertVec(t, v3.Vec{Z: -5}, m.Loads[0].Force)
	assert.Empty(t, m.Anchors, "no anchor goal means no default anchor")
}

func TestExtractFirstExplicitWins(t *testing.T) {
	goals := []study.Goal{
		{Name: "implicit-anchor", Kind: study.GoalAnchor},
		{Name: "explicit-anchor", Kind: study.GoalAnchor, Elements: []int{4}},
		{Name: "explicit-load", Kind: study.GoalLoad, Elements: []int{1}},
		{Name: "implicit-load", Kind: study.GoalLoad},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Anchors, 1)
	assert.Equal(t, "explicit-anchor", m.Anchors[0].Goal)
	require.Len(t, m.Loads, 1)
	assert.Equal(t, "explicit-load", m.Loads[0].Goal)
}

func TestExtractUnresolvableSelectionStillDefaults(t *testing.T) {
	goals := []study.Goal{
		{Name: "bad", Kind: study.GoalAnchor, Elements: []int{100}},
		{Name: "fallback", Kind: study.GoalAnchor},
	}
	m := Extract(plateMesh(), goals)
	require.Len(t, m.Anchors, 1)
	assert.Equal(t, "fallback", m.Anchors[0].Goal)
}

func TestExtractDeduplicates(t *testing.T) {
	goals := []study.Goal{
		{Name: "a1", Kind: study.GoalAnchor, Elements: []int{0, 1}},
		{Name: "a2", Kind: study.GoalAnchor, Elements: []int{1}},
		{Name: "l1", Kind: study.GoalLoad, Elements: []int{7, 8}, Params: study.LoadParams{Force: &v3.Vec{Y: -2}}},
		{Name: "l2", Kind: study.GoalLoad, Elements: []int{8}, Params: study.LoadParams{Force: &v3.Vec{X: 4}}},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Anchors, 2)
	assert.Equal(t, "a1", m.Anchors[1].Goal, "first anchor at a position wins")

	require.Len(t, m.Loads, 2)
	merged := m.Loads[1]
	assertVec(t, v3.Vec{X: 2, Z: 2}, merged.Position)
	assertVec(t, v3.Vec{X: 4, Y: -1}, merged.Force)
	assert.True(t, merged.Distributed)
	assert.Equal(t, []int{8}, merged.VertexIndices)
}

func TestExtractCentroidPlacement(t *testing.T) {
	goals := []study.Goal{
		{Name: "pad", Kind: study.GoalLoad, Elements: []int{0, 2, 8, 6}, Placement: study.PlaceCentroid,
			Params: study.LoadParams{Force: &v3.Vec{Y: -10}}},
		{Name: "line", Kind: study.GoalAnchor, Elements: []int{0, 1, 2}, Placement: study.PlaceCentroid},
	}
	m := Extract(plateMesh(), goals)

	require.Len(t, m.Loads, 1)
	assertVec(t, v3.Vec{X: 1, Z: 1}, m.Loads[0].Position)
	assertVec(t, v3.Vec{Y: -10}, m.Loads[0].Force)
	assert.False(t, m.Loads[0].Distributed)
	assert.Equal(t, []int{0, 2, 8, 6}, m.Loads[0].VertexIndices)

	// A collinear region is valid; its centroid is the arithmetic mean.
	require.Len(t, m.Anchors, 1)
	assertVec(t, v3.Vec{X: 1}, m.Anchors[0].Position)
}

func TestExtractInvalidCentroidFallsBackToVertices(t *testing.T) {
	goals := []study.Goal{
		{Name: "pad", Kind: study.GoalLoad, Elements: []int{0, 2, 99}, Placement: study.PlaceCentroid},
	}
	m := Extract(plateMesh(), goals)
	assert.Len(t, m.Loads, 2)
}

func TestExtractDoesNotMutateGoals(t *testing.T) {
	elements := []int{8, 99, 7}
	goals := []study.Goal{{Name: "l", Kind: study.GoalLoad, Elements: elements}}
	_ = Extract(plateMesh(), goals)
	assert.Equal(t, []int{8, 99, 7}, goals[0].Elements)
}

func TestExtractEmptyMesh(t *testing.T) {
	goals := []study.Goal{
		{Name: "a", Kind: study.GoalAnchor},
		{Name: "l", Kind: study.GoalLoad, Elements: []int{0}},
	}
	m := Extract(&kernel.Mesh{}, goals)
	assert.Empty(t, m.Anchors)
	assert.Empty(t, m.Loads)

	m = Extract(nil, goals)
	assert.Empty(t, m.Anchors)
}

func TestExtractFixedMask(t *testing.T) {
	mask := [3]bool{true, false, true}
	goals := []study.Goal{{Name: "roller", Kind: study.GoalAnchor, Elements: []int{3}, Params: study.AnchorParams{Fixed: &mask}}}
	m := Extract(plateMesh(), goals)
	require.Len(t, m.Anchors, 1)
	assert.Equal(t, mask, m.Anchors[0].Fixed)
}
