// Package isosurface reconstructs a triangle surface from a scalar volume
// with Marching Cubes.
package isosurface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("isosurface")

// PartName tags meshes produced by March.
const PartName = "isosurface"

// flatEpsilon is the corner difference below which an edge crossing is
// placed at the midpoint.
const flatEpsilon = 1e-6

// Material is one phase of a multi-material volume.
type Material struct {
	Color kernel.Color
	// Concentration holds one value per sample, laid out like Volume.Values.
	Concentration []float64
}

// Volume is a scalar field sampled on a regular grid of NX*NY*NZ points
// spanning Bounds.
type Volume struct {
	NX, NY, NZ int
	Values     []float64
	Materials  []Material
	Bounds     field.Bounds
}

// FromNodeField wraps a node field as a single-material volume.
func FromNodeField(f *field.NodeField) *Volume {
	return &Volume{NX: f.NX, NY: f.NY, NZ: f.NZ, Values: f.Values, Bounds: f.Bounds}
}

// Validate checks the grid shape and material buffers.
func (v *Volume) Validate() error {
	if v == nil {
		return errors.Wrap(field.ErrEmptyField, "isosurface: nil volume")
	}
	if v.NX <= 0 || v.NY <= 0 || v.NZ <= 0 {
		return errors.Wrapf(field.ErrInvalidGrid, "isosurface: grid %dx%dx%d", v.NX, v.NY, v.NZ)
	}
	if len(v.Values) == 0 {
		return errors.Wrap(field.ErrEmptyField, "isosurface: no samples")
	}
	n := v.NX * v.NY * v.NZ
	if len(v.Values) != n {
		return errors.Wrapf(field.ErrSizeMismatch, "isosurface: %d samples for grid %dx%dx%d", len(v.Values), v.NX, v.NY, v.NZ)
	}
	for i, m := range v.Materials {
		if len(m.Concentration) != n {
			return errors.Wrapf(field.ErrSizeMismatch, "isosurface: material %d has %d concentrations, want %d", i, len(m.Concentration), n)
		}
	}
	return nil
}

// edgeKey names a grid edge by its lower endpoint and axis.
type edgeKey struct {
	x, y, z int
	axis    int
}

// marcher holds the per-call state of one March.
type marcher struct {
	vol     *Volume
	iso     float64
	spacing v3.Vec
	cache   map[edgeKey]uint32
	b       *kernel.Builder
}

// March extracts the surface where the volume crosses isovalue. Samples at
// or above the isovalue are inside; triangle normals point away from them.
// The grid is treated as surrounded by a layer of empty samples, so material
// touching the bounds produces a closed surface lying on the bounds.
func March(vol *Volume, isovalue float64) (*kernel.Mesh, error) {
	if err := vol.Validate(); err != nil {
		return nil, err
	}

	iso := isovalue
	if math.IsNaN(iso) || iso < 0 || iso > 1 {
		iso = field.Clamp01(iso)
		log.Warnf("isovalue %v outside [0,1], clamped to %v", isovalue, iso)
	}
	if lo, hi := field.ClampedRange(vol.Values); iso < lo || iso > hi {
		log.Warnf("isovalue %.3f outside field range [%.3f, %.3f]", iso, lo, hi)
	}

	m := &marcher{
		vol:     vol,
		iso:     iso,
		spacing: spacing(vol),
		cache:   make(map[edgeKey]uint32),
		b:       kernel.NewBuilder(PartName),
	}

	// Cell (x,y,z) spans samples x..x+1; cells -1 and N-1 reach into the
	// empty border.
	var corners [8]float64
	for z := -1; z < vol.NZ; z++ {
		for y := -1; y < vol.NY; y++ {
			for x := -1; x < vol.NX; x++ {
				var config uint8
				for i, o := range cornerOffsets {
					corners[i] = m.value(x+o[0], y+o[1], z+o[2])
					if corners[i] >= iso {
						config |= 1 << uint(i)
					}
				}
				if config == 0 || config == 0xff {
					continue
				}
				m.emit(x, y, z, config)
			}
		}
	}

	mesh := m.b.Mesh()
	log.Debugf("marched %dx%dx%d samples at %.3f: %d vertices, %d triangles",
		vol.NX, vol.NY, vol.NZ, iso, mesh.VertexCount(), mesh.TriangleCount())
	return mesh, nil
}

func spacing(vol *Volume) v3.Vec {
	s := vol.Bounds.Size()
	axis := func(extent float64, n int) float64 {
		if n <= 1 {
			return extent
		}
		return extent / float64(n-1)
	}
	return v3.Vec{X: axis(s.X, vol.NX), Y: axis(s.Y, vol.NY), Z: axis(s.Z, vol.NZ)}
}

func (m *marcher) emit(x, y, z int, config uint8) {
	var verts [12]uint32
	mask := edgeTable[config]
	for e := 0; e < 12; e++ {
		if mask&(1<<uint(e)) == 0 {
			continue
		}
		o := edgeOrigin[e]
		verts[e] = m.vertex(edgeKey{x: x + o[0], y: y + o[1], z: z + o[2], axis: edgeAxis[e]})
	}
	tris := triTable[config]
	for i := 0; i+2 < len(tris); i += 3 {
		m.b.AddTriangle(verts[tris[i]], verts[tris[i+1]], verts[tris[i+2]])
	}
}

// vertex returns the shared vertex on grid edge k, creating it on first use.
func (m *marcher) vertex(k edgeKey) uint32 {
	if idx, ok := m.cache[k]; ok {
		return idx
	}

	x2, y2, z2 := k.x, k.y, k.z
	switch k.axis {
	case 0:
		x2++
	case 1:
		y2++
	default:
		z2++
	}

	v1 := m.value(k.x, k.y, k.z)
	v2 := m.value(x2, y2, z2)
	t := 0.5
	if math.Abs(v1-v2) >= flatEpsilon {
		t = (m.iso - v1) / (v2 - v1)
	}

	p1 := m.position(k.x, k.y, k.z)
	p2 := m.position(x2, y2, z2)
	pos := m.clampToBounds(p1.Add(p2.Sub(p1).MulScalar(t)))

	n1 := m.normal(k.x, k.y, k.z)
	n2 := m.normal(x2, y2, z2)
	normal := unitOrUp(n1.Add(n2.Sub(n1).MulScalar(t)))

	color := m.color(k.x, k.y, k.z).Lerp(m.color(x2, y2, z2), t)

	u, v := m.planarUV(pos)
	idx := m.b.AddVertex(kernel.Vertex{Position: pos, Normal: normal, U: u, V: v, Color: color})
	m.cache[k] = idx
	return idx
}

// value returns the clamped sample at (x,y,z); samples outside the grid are 0.
func (m *marcher) value(x, y, z int) float64 {
	vol := m.vol
	if x < 0 || y < 0 || z < 0 || x >= vol.NX || y >= vol.NY || z >= vol.NZ {
		return 0
	}
	return field.Clamp01(vol.Values[m.index(x, y, z)])
}

func (m *marcher) index(x, y, z int) int {
	return x + m.vol.NX*(y+m.vol.NY*z)
}

func (m *marcher) position(x, y, z int) v3.Vec {
	b := m.vol.Bounds
	return v3.Vec{
		X: b.Min.X + float64(x)*m.spacing.X,
		Y: b.Min.Y + float64(y)*m.spacing.Y,
		Z: b.Min.Z + float64(z)*m.spacing.Z,
	}
}

func (m *marcher) clampToBounds(p v3.Vec) v3.Vec {
	b := m.vol.Bounds
	return v3.Vec{
		X: math.Max(b.Min.X, math.Min(b.Max.X, p.X)),
		Y: math.Max(b.Min.Y, math.Min(b.Max.Y, p.Y)),
		Z: math.Max(b.Min.Z, math.Min(b.Max.Z, p.Z)),
	}
}

// normal returns the outward direction at sample (x,y,z): the negated
// central-difference gradient, normalized.
func (m *marcher) normal(x, y, z int) v3.Vec {
	g := v3.Vec{
		X: gradient(m.value(x+1, y, z), m.value(x-1, y, z), m.spacing.X),
		Y: gradient(m.value(x, y+1, z), m.value(x, y-1, z), m.spacing.Y),
		Z: gradient(m.value(x, y, z+1), m.value(x, y, z-1), m.spacing.Z),
	}
	return unitOrUp(g.MulScalar(-1))
}

func gradient(ahead, behind, h float64) float64 {
	if h <= 0 {
		return ahead - behind
	}
	return (ahead - behind) / (2 * h)
}

// unitOrUp normalizes v, falling back to +Y for a zero vector.
func unitOrUp(v v3.Vec) v3.Vec {
	l := v.Length()
	if l < 1e-12 || math.IsNaN(l) {
		return v3.Vec{Y: 1}
	}
	return v.DivScalar(l)
}

// color blends the material colours at the nearest in-grid sample by
// concentration. Volumes without materials use the default colour.
func (m *marcher) color(x, y, z int) kernel.Color {
	vol := m.vol
	if len(vol.Materials) == 0 {
		return kernel.DefaultColor
	}
	i := m.index(clampIndex(x, vol.NX), clampIndex(y, vol.NY), clampIndex(z, vol.NZ))
	var c kernel.Color
	var total float64
	for _, mat := range vol.Materials {
		w := field.Clamp01(mat.Concentration[i])
		c.R += mat.Color.R * w
		c.G += mat.Color.G * w
		c.B += mat.Color.B * w
		total += w
	}
	if total <= 0 {
		return kernel.DefaultColor
	}
	return kernel.Color{R: c.R / total, G: c.G / total, B: c.B / total}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// planarUV projects p onto the XY plane of the bounds.
func (m *marcher) planarUV(p v3.Vec) (float64, float64) {
	b := m.vol.Bounds
	s := b.Size()
	var u, v float64
	if s.X > 0 {
		u = (p.X - b.Min.X) / s.X
	}
	if s.Y > 0 {
		v = (p.Y - b.Min.Y) / s.Y
	}
	return u, v
}
