package field

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NodeField holds values sampled at grid nodes. A field built from an
// nx*ny*nz cell grid has (nx+1)*(ny+1)*(nz+1) nodes spanning the same bounds.
type NodeField struct {
	Values []float64
	NX     int
	NY     int
	NZ     int
	Bounds Bounds
}

// Validate checks that the node grid shape is usable.
func (f *NodeField) Validate() error {
	if f == nil {
		return ErrEmptyField
	}
	return validateShape("node", f.Values, f.NX, f.NY, f.NZ)
}

// NodeCount returns nx*ny*nz.
func (f *NodeField) NodeCount() int {
	return f.NX * f.NY * f.NZ
}

// Index returns the flat index of node (x, y, z).
func (f *NodeField) Index(x, y, z int) int {
	return x + f.NX*(y+f.NY*z)
}

// At returns the value at node (x, y, z).
func (f *NodeField) At(x, y, z int) float64 {
	return f.Values[f.Index(x, y, z)]
}

// Spacing returns the world-space distance between adjacent nodes on each
// axis. A single-node axis reports the full extent.
func (f *NodeField) Spacing() v3.Vec {
	s := f.Bounds.Size()
	return v3.Vec{X: axisSpacing(s.X, f.NX), Y: axisSpacing(s.Y, f.NY), Z: axisSpacing(s.Z, f.NZ)}
}

func axisSpacing(extent float64, n int) float64 {
	if n <= 1 {
		return extent
	}
	return extent / float64(n-1)
}

// Position returns the world-space position of node (x, y, z). Indices
// outside the grid extrapolate along the same spacing.
func (f *NodeField) Position(x, y, z int) v3.Vec {
	sp := f.Spacing()
	return v3.Vec{
		X: f.Bounds.Min.X + float64(x)*sp.X,
		Y: f.Bounds.Min.Y + float64(y)*sp.Y,
		Z: f.Bounds.Min.Z + float64(z)*sp.Z,
	}
}

// Clone returns a deep copy.
func (f *NodeField) Clone() *NodeField {
	values := make([]float64, len(f.Values))
	copy(values, f.Values)
	return &NodeField{Values: values, NX: f.NX, NY: f.NY, NZ: f.NZ, Bounds: f.Bounds}
}

// Sample returns the trilinear interpolation of the field at world position
// p. Points outside the bounds sample as 0.
func (f *NodeField) Sample(p v3.Vec) float64 {
	b := f.Bounds
	if p.X < b.Min.X || p.Y < b.Min.Y || p.Z < b.Min.Z ||
		p.X > b.Max.X || p.Y > b.Max.Y || p.Z > b.Max.Z {
		return 0
	}
	sp := f.Spacing()
	gx := gridCoord(p.X-b.Min.X, sp.X, f.NX)
	gy := gridCoord(p.Y-b.Min.Y, sp.Y, f.NY)
	gz := gridCoord(p.Z-b.Min.Z, sp.Z, f.NZ)
	return f.interpolate(gx, gy, gz)
}

func gridCoord(offset, spacing float64, n int) float64 {
	if n <= 1 || spacing <= 0 {
		return 0
	}
	return offset / spacing
}

// interpolate blends the eight nodes around fractional grid coordinate
// (gx, gy, gz). Coordinates are clamped to the grid.
func (f *NodeField) interpolate(gx, gy, gz float64) float64 {
	x0, x1, tx := bracket(gx, f.NX)
	y0, y1, ty := bracket(gy, f.NY)
	z0, z1, tz := bracket(gz, f.NZ)

	c000 := f.At(x0, y0, z0)
	c100 := f.At(x1, y0, z0)
	c010 := f.At(x0, y1, z0)
	c110 := f.At(x1, y1, z0)
	c001 := f.At(x0, y0, z1)
	c101 := f.At(x1, y0, z1)
	c011 := f.At(x0, y1, z1)
	c111 := f.At(x1, y1, z1)

	c00 := lerp(c000, c100, tx)
	c10 := lerp(c010, c110, tx)
	c01 := lerp(c001, c101, tx)
	c11 := lerp(c011, c111, tx)
	c0 := lerp(c00, c10, ty)
	c1 := lerp(c01, c11, ty)
	return lerp(c0, c1, tz)
}

// bracket returns the two node indices surrounding coordinate c and the
// fractional weight of the upper one.
func bracket(c float64, n int) (lo, hi int, t float64) {
	if n <= 1 || c <= 0 {
		return 0, 0, 0
	}
	last := float64(n - 1)
	if c >= last {
		return n - 1, n - 1, 0
	}
	lo = int(math.Floor(c))
	hi = lo + 1
	return lo, hi, c - float64(lo)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// BuildNodeField averages the clamped cell densities incident on each node.
// Interior nodes touch eight cells; boundary nodes touch as few as one.
func BuildNodeField(df *DensityField) (*NodeField, error) {
	if err := df.Validate(); err != nil {
		return nil, err
	}

	nx, ny, nz := df.NX+1, df.NY+1, df.NZ+1
	sums := make([]float64, nx*ny*nz)
	counts := make([]uint8, nx*ny*nz)
	nonFinite := 0

	for z := 0; z < df.NZ; z++ {
		for y := 0; y < df.NY; y++ {
			for x := 0; x < df.NX; x++ {
				raw := df.Values[df.Index(x, y, z)]
				if math.IsNaN(raw) || math.IsInf(raw, 0) {
					nonFinite++
				}
				v := Clamp01(raw)
				for dz := 0; dz <= 1; dz++ {
					for dy := 0; dy <= 1; dy++ {
						for dx := 0; dx <= 1; dx++ {
							i := (x + dx) + nx*((y+dy)+ny*(z+dz))
							sums[i] += v
							counts[i]++
						}
					}
				}
			}
		}
	}

	if nonFinite > 0 {
		log.Warnf("replaced %d non-finite densities with 0", nonFinite)
	}

	values := make([]float64, len(sums))
	for i, s := range sums {
		if counts[i] > 0 {
			values[i] = s / float64(counts[i])
		}
	}

	return &NodeField{Values: values, NX: nx, NY: ny, NZ: nz, Bounds: df.Bounds}, nil
}
