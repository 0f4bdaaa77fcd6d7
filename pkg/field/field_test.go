package field

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeField returns an nx*ny*nz field in unit-cell bounds filled with fill.
func makeField(nx, ny, nz int, fill float64) *DensityField {
	values := make([]float64, nx*ny*nz)
	for i := range values {
		values[i] = fill
	}
	return &DensityField{Values: values, NX: nx, NY: ny, NZ: nz, Bounds: UnitBounds(nx, ny, nz)}
}

// rampNodes returns a node field whose value grows linearly along x.
func rampNodes(nx, ny, nz int) *NodeField {
	f := &NodeField{Values: make([]float64, nx*ny*nz), NX: nx, NY: ny, NZ: nz, Bounds: UnitBounds(nx-1, ny-1, nz-1)}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				f.Values[f.Index(x, y, z)] = float64(x) / float64(nx-1)
			}
		}
	}
	return f
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.25, 0.25},
		{-3, 0},
		{7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp01(tt.in), "Clamp01(%v)", tt.in)
	}
}

func TestClampValuesCountsNonFinite(t *testing.T) {
	in := []float64{0.5, math.NaN(), 2, -1, math.Inf(1)}
	out, nonFinite := ClampValues(in)

	assert.Equal(t, 2, nonFinite)
	assert.Equal(t, []float64{0.5, 0, 1, 0, 0}, out)
	assert.True(t, math.IsNaN(in[1]), "input must not be modified")
	for _, v := range out {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, makeField(2, 2, 2, 1).Validate())

	bad := makeField(2, 2, 2, 1)
	bad.NY = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidGrid))

	empty := &DensityField{NX: 2, NY: 2, NZ: 2}
	assert.True(t, errors.Is(empty.Validate(), ErrEmptyField))

	short := makeField(2, 2, 2, 1)
	short.Values = short.Values[:5]
	assert.Equal(t, ErrSizeMismatch, errors.Cause(short.Validate()))

	var nilField *DensityField
	assert.True(t, errors.Is(nilField.Validate(), ErrEmptyField))
}

func TestBuildNodeFieldUniform(t *testing.T) {
	nf, err := BuildNodeField(makeField(3, 2, 2, 0.6))
	require.NoError(t, err)

	assert.Equal(t, 4, nf.NX)
	assert.Equal(t, 3, nf.NY)
	assert.Equal(t, 3, nf.NZ)
	for i, v := range nf.Values {
		assert.InDelta(t, 0.6, v, 1e-12, "node %d", i)
	}
}

func TestBuildNodeFieldIncidenceCounts(t *testing.T) {
	// A single hot cell in the corner of a 2x2x2 grid.
	df := makeField(2, 2, 2, 0)
	df.Values[df.Index(0, 0, 0)] = 1
	nf, err := BuildNodeField(df)
	require.NoError(t, err)

	// Corner node touches only the hot cell.
	assert.InDelta(t, 1.0, nf.At(0, 0, 0), 1e-12)
	// Edge midpoint touches two cells.
	assert.InDelta(t, 0.5, nf.At(1, 0, 0), 1e-12)
	// Face centre touches four cells.
	assert.InDelta(t, 0.25, nf.At(1, 1, 0), 1e-12)
	// The interior node touches all eight.
	assert.InDelta(t, 0.125, nf.At(1, 1, 1), 1e-12)
	// Far corner never sees the hot cell.
	assert.Equal(t, 0.0, nf.At(2, 2, 2))
}

func TestBuildNodeFieldClampsNonFinite(t *testing.T) {
	df := makeField(1, 1, 1, 0)
	df.Values[0] = math.NaN()
	nf, err := BuildNodeField(df)
	require.NoError(t, err)
	for _, v := range nf.Values {
		assert.Equal(t, 0.0, v)
	}

	df.Values[0] = 5
	nf, err = BuildNodeField(df)
	require.NoError(t, err)
	for _, v := range nf.Values {
		assert.Equal(t, 1.0, v)
	}
	assert.Equal(t, 5.0, df.Values[0], "input must not be modified")
}

func TestBuildNodeFieldRejectsBadShape(t *testing.T) {
	_, err := BuildNodeField(&DensityField{NX: -1, NY: 1, NZ: 1, Values: []float64{1}})
	assert.True(t, errors.Is(err, ErrInvalidGrid))

	_, err = BuildNodeField(&DensityField{NX: 1, NY: 1, NZ: 1})
	assert.True(t, errors.Is(err, ErrEmptyField))
}

func TestHeavisideProjection(t *testing.T) {
	nf := rampNodes(11, 2, 2)
	out := HeavisideProjection(nf, 8, 0.5)

	assert.InDelta(t, 0.0, out.At(0, 0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(10, 0, 0), 1e-12)
	assert.InDelta(t, 0.5, out.At(5, 0, 0), 1e-12)
	// Below the threshold values are pushed down, above they are pushed up.
	assert.Less(t, out.At(3, 0, 0), nf.At(3, 0, 0))
	assert.Greater(t, out.At(7, 0, 0), nf.At(7, 0, 0))

	// Sharper beta pushes further.
	sharper := HeavisideProjection(nf, 32, 0.5)
	assert.Less(t, sharper.At(3, 0, 0), out.At(3, 0, 0))

	for _, v := range sharper.Values {
		assert.True(t, v >= 0 && v <= 1)
	}
	assert.InDelta(t, 0.3, nf.At(3, 0, 0), 1e-12, "input must not be modified")
}

func TestHeavisideProjectionZeroBetaIsIdentity(t *testing.T) {
	nf := rampNodes(5, 2, 2)
	out := HeavisideProjection(nf, 0, 0.5)
	if diff := cmp.Diff(nf.Values, out.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("HeavisideProjection(beta=0) mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleBeta(t *testing.T) {
	assert.Equal(t, 1.0, ScheduleBeta(0, 20, 1, 16))
	assert.Equal(t, 16.0, ScheduleBeta(20, 20, 1, 16))
	assert.Equal(t, 16.0, ScheduleBeta(19, 20, 1, 16))
	assert.Equal(t, 16.0, ScheduleBeta(500, 20, 1, 16))
	assert.Equal(t, 1.0, ScheduleBeta(-4, 20, 1, 16))

	mid := ScheduleBeta(10, 21, 0, 20)
	assert.InDelta(t, 10.0, mid, 1e-12)

	// No continuation.
	assert.Equal(t, 16.0, ScheduleBeta(0, 1, 1, 16))
	assert.Equal(t, 16.0, ScheduleBeta(0, 0, 1, 16))
}

func TestScheduleBetaMonotonic(t *testing.T) {
	prev := ScheduleBeta(0, 30, 1, 32)
	for i := 1; i <= 40; i++ {
		b := ScheduleBeta(i, 30, 1, 32)
		assert.GreaterOrEqual(t, b, prev, "iter %d", i)
		prev = b
	}
}

func TestResampleFactorOneIsNoOp(t *testing.T) {
	nf := rampNodes(4, 3, 2)
	out := Resample(nf, 1)
	assert.Same(t, nf, out)
	assert.Same(t, nf, Resample(nf, 0))
}

func TestResampleInterpolates(t *testing.T) {
	nf := rampNodes(3, 2, 2)
	out := Resample(nf, 2)

	assert.Equal(t, 5, out.NX)
	assert.Equal(t, 3, out.NY)
	assert.Equal(t, 3, out.NZ)
	assert.Equal(t, nf.Bounds, out.Bounds)

	for x := 0; x < out.NX; x++ {
		assert.InDelta(t, float64(x)/4, out.At(x, 1, 1), 1e-12, "x=%d", x)
	}
	// Original nodes are preserved.
	assert.InDelta(t, nf.At(1, 1, 1), out.At(2, 2, 2), 1e-12)
}

func TestFilterGuards(t *testing.T) {
	nf := rampNodes(4, 4, 4)
	assert.Same(t, nf, Filter(nf, 0, 1000))
	assert.Same(t, nf, Filter(nf, -2, 1000))
	assert.Same(t, nf, Filter(nf, 1.5, 10), "node count above ceiling must skip")
}

func TestFilterSmoothsCheckerboard(t *testing.T) {
	nf := &NodeField{Values: make([]float64, 5*5*5), NX: 5, NY: 5, NZ: 5, Bounds: UnitBounds(4, 4, 4)}
	for z := 0; z < 5; z++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				if (x+y+z)%2 == 0 {
					nf.Values[nf.Index(x, y, z)] = 1
				}
			}
		}
	}
	out := Filter(nf, 1.5, 0)
	require.NotSame(t, nf, out)

	center := out.At(2, 2, 2)
	assert.Greater(t, center, 0.0)
	assert.Less(t, center, 1.0)
	neighbor := out.At(2, 2, 1)
	assert.Greater(t, neighbor, 0.0)
	assert.Less(t, neighbor, 1.0)
	assert.Equal(t, 1.0, nf.At(2, 2, 2), "input must not be modified")
}

func TestFilterPreservesUniform(t *testing.T) {
	nf, err := BuildNodeField(makeField(4, 4, 4, 0.7))
	require.NoError(t, err)
	out := Filter(nf, 2.5, 0)
	for _, v := range out.Values {
		assert.InDelta(t, 0.7, v, 1e-12)
	}
}

func TestToCubicGrid(t *testing.T) {
	df := makeField(4, 2, 1, 0)
	for i := range df.Values {
		df.Values[i] = float64(i)
	}
	out := ToCubicGrid(df)
	assert.Equal(t, 4, out.NX)
	assert.Equal(t, 4, out.NY)
	assert.Equal(t, 1, out.NZ, "planar grids stay planar")
	assert.Equal(t, df.Values[df.Index(3, 1, 0)], out.Values[out.Index(3, 3, 0)])
	assert.Equal(t, df.Values[df.Index(0, 0, 0)], out.Values[out.Index(0, 1, 0)])

	vol := ToCubicGrid(makeField(6, 6, 2, 0.5))
	assert.Equal(t, 6, vol.NZ)

	cubic := makeField(3, 3, 3, 1)
	assert.Same(t, cubic, ToCubicGrid(cubic))
}

func TestSample(t *testing.T) {
	nf := rampNodes(5, 2, 2)
	assert.InDelta(t, 0.5, nf.Sample(v3.Vec{X: 2, Y: 0.5, Z: 0.5}), 1e-12)
	assert.InDelta(t, 0.625, nf.Sample(v3.Vec{X: 2.5, Y: 1, Z: 1}), 1e-12)
	assert.Equal(t, 0.0, nf.Sample(v3.Vec{X: -1, Y: 0, Z: 0}))
	assert.Equal(t, 0.0, nf.Sample(v3.Vec{X: 1, Y: 0, Z: 9}))
}

func TestRangeAndMean(t *testing.T) {
	lo, hi := Range([]float64{0.3, -1, 4})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.InDelta(t, 1.1, Mean([]float64{0.3, -1, 4}), 1e-12)

	lo, hi = Range(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
	assert.Zero(t, Mean(nil))
}

func TestClampedRangeMatchesClampedCopy(t *testing.T) {
	values := []float64{0.3, -1, 4, math.NaN(), math.Inf(-1), 0.7}
	before := append([]float64(nil), values...)

	clamped, _ := ClampValues(values)
	wantLo, wantHi := Range(clamped)
	lo, hi := ClampedRange(values)
	assert.Equal(t, wantLo, lo)
	assert.Equal(t, wantHi, hi)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
	assert.Len(t, values, len(before))
	assert.Equal(t, before[:3], values[:3], "input must not be modified")

	lo, hi = ClampedRange([]float64{0.25, 0.5})
	assert.Equal(t, 0.25, lo)
	assert.Equal(t, 0.5, hi)

	lo, hi = ClampedRange(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	assert.Zero(t, testing.AllocsPerRun(10, func() { ClampedRange(values) }))
}

func TestCellCenter(t *testing.T) {
	df := &DensityField{NX: 2, NY: 2, NZ: 1, Values: make([]float64, 4),
		Bounds: Bounds{Min: v3.Vec{X: -1, Y: -1, Z: 0}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}}
	c := df.CellCenter(1, 0, 0)
	assert.InDelta(t, 0.5, c.X, 1e-12)
	assert.InDelta(t, -0.5, c.Y, 1e-12)
	assert.InDelta(t, 0.5, c.Z, 1e-12)
}
