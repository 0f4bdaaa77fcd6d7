package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex,
// colors has 3 floats per vertex (r,g,b) and indices has 3 uint32s per triangle.
// A mesh returned by any stage is owned by the caller.
type Mesh struct {
	Vertices []float32 `json:"vertices"`         // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`          // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs,omitempty"`    // [u0,v0, u1,v1, ...]
	Colors   []float32 `json:"colors,omitempty"` // [r0,g0,b0, ...]
	Indices  []uint32  `json:"indices"`          // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`         // which pipeline stage produced it
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Position returns vertex i as a vector.
func (m *Mesh) Position(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh reports a zero box.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	n := m.VertexCount()
	if n == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min = m.Position(0)
	max = min
	for i := 1; i < n; i++ {
		p := m.Position(i)
		min.X, max.X = minf(min.X, p.X), maxf(max.X, p.X)
		min.Y, max.Y = minf(min.Y, p.Y), maxf(max.Y, p.Y)
		min.Z, max.Z = minf(min.Z, p.Z), maxf(max.Z, p.Z)
	}
	return min, max
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: cloneFloats(m.Vertices),
		Normals:  cloneFloats(m.Normals),
		UVs:      cloneFloats(m.UVs),
		Colors:   cloneFloats(m.Colors),
		Indices:  cloneIndices(m.Indices),
		PartName: m.PartName,
	}
}

// Append adds the geometry of other to m, offsetting its indices. Optional
// buffers are only carried when both meshes have them.
func (m *Mesh) Append(other *Mesh) {
	if other == nil || other.IsEmpty() {
		return
	}
	keepUVs := len(m.UVs) == len(m.Vertices)/3*2 && len(other.UVs) == other.VertexCount()*2
	keepColors := len(m.Colors) == len(m.Vertices) && len(other.Colors) == len(other.Vertices)

	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = append(m.Normals, other.Normals...)
	if keepUVs {
		m.UVs = append(m.UVs, other.UVs...)
	} else {
		m.UVs = nil
	}
	if keepColors {
		m.Colors = append(m.Colors, other.Colors...)
	} else {
		m.Colors = nil
	}
	for _, i := range other.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

func cloneFloats(s []float32) []float32 {
	if s == nil {
		return nil
	}
	out := make([]float32, len(s))
	copy(out, s)
	return out
}

func cloneIndices(s []uint32) []uint32 {
	if s == nil {
		return nil
	}
	out := make([]uint32, len(s))
	copy(out, s)
	return out
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
