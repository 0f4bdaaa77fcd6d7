package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Color is a linear RGB colour with components in [0,1].
type Color struct {
	R, G, B float64
}

// DefaultColor is the flat colour used when no material data is present.
var DefaultColor = Color{R: 0.8, G: 0.8, B: 0.82}

// Lerp blends c toward o by t.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
	}
}

// Vertex is one mesh vertex with all of its attributes.
type Vertex struct {
	Position v3.Vec
	Normal   v3.Vec
	U, V     float64
	Color    Color
}

// Builder accumulates vertices and triangles into a Mesh. Every vertex
// carries a normal, UV and colour so the buffers stay aligned.
type Builder struct {
	mesh *Mesh
}

// NewBuilder returns a builder for a mesh tagged with partName.
func NewBuilder(partName string) *Builder {
	return &Builder{mesh: &Mesh{
		Vertices: []float32{},
		Normals:  []float32{},
		UVs:      []float32{},
		Colors:   []float32{},
		Indices:  []uint32{},
		PartName: partName,
	}}
}

// AddVertex appends v and returns its index.
func (b *Builder) AddVertex(v Vertex) uint32 {
	m := b.mesh
	idx := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
	m.Normals = append(m.Normals, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
	m.UVs = append(m.UVs, float32(v.U), float32(v.V))
	m.Colors = append(m.Colors, float32(v.Color.R), float32(v.Color.G), float32(v.Color.B))
	return idx
}

// AddTriangle appends the triangle (a, b, c).
func (b *Builder) AddTriangle(a, bb, c uint32) {
	b.mesh.Indices = append(b.mesh.Indices, a, bb, c)
}

// AddQuad appends the quad (a, b, c, d) as two triangles sharing the a-c diagonal.
func (b *Builder) AddQuad(a, bb, c, d uint32) {
	b.AddTriangle(a, bb, c)
	b.AddTriangle(a, c, d)
}

// VertexCount returns the number of vertices added so far.
func (b *Builder) VertexCount() int {
	return b.mesh.VertexCount()
}

// Mesh returns the accumulated mesh. The builder must not be used afterwards.
func (b *Builder) Mesh() *Mesh {
	m := b.mesh
	b.mesh = nil
	return m
}
