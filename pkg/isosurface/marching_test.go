package isosurface

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
)

// makeVolume returns an n*n*n sample volume with unit spacing filled with fill.
func makeVolume(n int, fill float64) *Volume {
	values := make([]float64, n*n*n)
	for i := range values {
		values[i] = fill
	}
	return &Volume{NX: n, NY: n, NZ: n, Values: values, Bounds: field.UnitBounds(n-1, n-1, n-1)}
}

func (v *Volume) set(x, y, z int, value float64) {
	v.Values[x+v.NX*(y+v.NY*z)] = value
}

// requireClosed checks that every directed edge is matched by its reverse,
// so the triangles form closed, consistently oriented sheets.
func requireClosed(t *testing.T, m *kernel.Mesh) {
	t.Helper()
	edges := map[[2]uint32]int{}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		edges[[2]uint32{a, b}]++
		edges[[2]uint32{b, c}]++
		edges[[2]uint32{c, a}]++
	}
	for e, n := range edges {
		require.Equal(t, n, edges[[2]uint32{e[1], e[0]}], "edge %v is not matched by its reverse", e)
	}
}

func requireUnitNormals(t *testing.T, m *kernel.Mesh) {
	t.Helper()
	require.Len(t, m.Normals, len(m.Vertices))
	for i := 0; i < m.VertexCount(); i++ {
		n := v3.Vec{X: float64(m.Normals[i*3]), Y: float64(m.Normals[i*3+1]), Z: float64(m.Normals[i*3+2])}
		require.InDelta(t, 1.0, n.Length(), 1e-5, "normal %d", i)
	}
}

func triangleNormal(m *kernel.Mesh, tri int) (v3.Vec, v3.Vec) {
	a := m.Position(int(m.Indices[tri*3]))
	b := m.Position(int(m.Indices[tri*3+1]))
	c := m.Position(int(m.Indices[tri*3+2]))
	centroid := a.Add(b).Add(c).DivScalar(3)
	return b.Sub(a).Cross(c.Sub(a)), centroid
}

func TestMarchAllBelowIsEmpty(t *testing.T) {
	m, err := March(makeVolume(4, 0.2), 0.5)
	require.NoError(t, err)
	assert.Zero(t, m.TriangleCount())
	assert.True(t, m.IsEmpty())
}

func TestMarchSingleHotSample(t *testing.T) {
	vol := makeVolume(3, 0)
	vol.set(1, 1, 1, 1)

	m, err := March(vol, 0.5)
	require.NoError(t, err)

	// One crossing per axis direction around the hot sample, eight cells.
	assert.Equal(t, 6, m.VertexCount())
	assert.Equal(t, 8, m.TriangleCount())
	requireClosed(t, m)
	requireUnitNormals(t, m)

	center := v3.Vec{X: 1, Y: 1, Z: 1}
	for tri := 0; tri < m.TriangleCount(); tri++ {
		n, c := triangleNormal(m, tri)
		assert.Greater(t, n.Dot(c.Sub(center)), 0.0, "triangle %d faces inward", tri)
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(i)
		assert.InDelta(t, 0.5, p.Sub(center).Length(), 1e-6, "vertex %d", i)
	}
}

func TestMarchEveryCellConfigurationIsClosed(t *testing.T) {
	for c := 1; c < 256; c++ {
		vol := makeVolume(2, 0)
		for corner, o := range cornerOffsets {
			if c&(1<<uint(corner)) != 0 {
				vol.set(o[0], o[1], o[2], 1)
			}
		}
		m, err := March(vol, 0.5)
		require.NoError(t, err)
		require.NotZero(t, m.TriangleCount(), "config %d", c)
		requireClosed(t, m)
		requireUnitNormals(t, m)
	}
}

func TestMarchSolidFieldIsClosedBox(t *testing.T) {
	df := &field.DensityField{NX: 4, NY: 4, NZ: 4, Values: make([]float64, 64), Bounds: field.UnitBounds(4, 4, 4)}
	for i := range df.Values {
		df.Values[i] = 1
	}
	nf, err := field.BuildNodeField(df)
	require.NoError(t, err)

	m, err := March(FromNodeField(nf), 0.5)
	require.NoError(t, err)

	assert.Greater(t, m.VertexCount(), 0)
	assert.Zero(t, len(m.Indices)%3)
	requireClosed(t, m)
	requireUnitNormals(t, m)

	min, max := m.Bounds()
	assert.Equal(t, v3.Vec{}, min)
	assert.Equal(t, v3.Vec{X: 4, Y: 4, Z: 4}, max)

	center := v3.Vec{X: 2, Y: 2, Z: 2}
	for i := 0; i < m.VertexCount(); i++ {
		n := v3.Vec{X: float64(m.Normals[i*3]), Y: float64(m.Normals[i*3+1]), Z: float64(m.Normals[i*3+2])}
		assert.Greater(t, n.Dot(m.Position(i).Sub(center)), 0.0, "vertex %d normal points inward", i)
	}
}

func TestMarchSharesVertices(t *testing.T) {
	vol := makeVolume(5, 0)
	for z := 1; z <= 3; z++ {
		for y := 1; y <= 3; y++ {
			for x := 1; x <= 3; x++ {
				vol.set(x, y, z, 1)
			}
		}
	}
	m, err := March(vol, 0.5)
	require.NoError(t, err)

	seen := map[[3]float32]bool{}
	for i := 0; i < m.VertexCount(); i++ {
		p := [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
		require.False(t, seen[p], "vertex %v duplicated", p)
		seen[p] = true
	}
	requireClosed(t, m)
}

func TestMarchInterpolatesCrossing(t *testing.T) {
	vol := makeVolume(3, 0)
	vol.set(1, 1, 1, 0.8)
	m, err := March(vol, 0.2)
	require.NoError(t, err)

	// t = (0.2 - 0) / (0.8 - 0) from the empty side, so each crossing sits
	// 0.75 of the way out from the hot sample.
	center := v3.Vec{X: 1, Y: 1, Z: 1}
	for i := 0; i < m.VertexCount(); i++ {
		assert.InDelta(t, 0.75, m.Position(i).Sub(center).Length(), 1e-6)
	}
}

func TestMarchColorsAndUVs(t *testing.T) {
	vol := makeVolume(3, 0)
	vol.set(1, 1, 1, 1)

	m, err := March(vol, 0.5)
	require.NoError(t, err)
	require.Len(t, m.Colors, len(m.Vertices))
	require.Len(t, m.UVs, m.VertexCount()*2)
	for i := 0; i < m.VertexCount(); i++ {
		assert.InDelta(t, kernel.DefaultColor.R, m.Colors[i*3], 1e-6)
		u, v := m.UVs[i*2], m.UVs[i*2+1]
		assert.True(t, u >= 0 && u <= 1 && v >= 0 && v <= 1)
	}

	red := make([]float64, len(vol.Values))
	for i := range red {
		red[i] = 1
	}
	vol.Materials = []Material{{Color: kernel.Color{R: 1}, Concentration: red}}
	m, err = March(vol, 0.5)
	require.NoError(t, err)
	for i := 0; i < m.VertexCount(); i++ {
		assert.InDelta(t, 1.0, m.Colors[i*3], 1e-6)
		assert.InDelta(t, 0.0, m.Colors[i*3+1], 1e-6)
	}
}

func TestMarchErrors(t *testing.T) {
	_, err := March(&Volume{NX: 0, NY: 2, NZ: 2, Values: []float64{1}}, 0.5)
	assert.True(t, errors.Is(err, field.ErrInvalidGrid))

	_, err = March(&Volume{NX: 2, NY: 2, NZ: 2}, 0.5)
	assert.True(t, errors.Is(err, field.ErrEmptyField))

	_, err = March(&Volume{NX: 2, NY: 2, NZ: 2, Values: []float64{1, 2}}, 0.5)
	assert.True(t, errors.Is(err, field.ErrSizeMismatch))

	vol := makeVolume(2, 1)
	vol.Materials = []Material{{Concentration: []float64{1}}}
	_, err = March(vol, 0.5)
	assert.True(t, errors.Is(err, field.ErrSizeMismatch))

	_, err = March(nil, 0.5)
	assert.Error(t, err)
}

func TestMarchWarnsOnOutOfRangeIsovalue(t *testing.T) {
	hook := test.NewLocal(logging.Root())
	defer logging.Root().ReplaceHooks(make(logrus.LevelHooks))

	vol := makeVolume(3, 0)
	vol.set(1, 1, 1, 0.6)

	m, err := March(vol, 1.7)
	require.NoError(t, err)
	assert.Zero(t, m.TriangleCount(), "clamped isovalue 1 is above every sample")

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "expected clamp and range warnings")

	_, err = March(vol, math.NaN())
	require.NoError(t, err)
}
