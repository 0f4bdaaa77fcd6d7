// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. A node field is wrapped as a
// signed distance function (isovalue minus the trilinear sample, so material
// is negative) and meshed with sdfx's uniform marching cubes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("sdfx")

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// PartName tags meshes produced by this kernel.
const PartName = "isosurface-sdfx"

const (
	// minMeshCells and maxMeshCells bound the marching cubes resolution
	// along the longest axis.
	minMeshCells = 16
	maxMeshCells = 200
	// cellsPerNode is the default resolution relative to the node grid.
	cellsPerNode = 2
)

// fieldSDF is a node field viewed as an sdf.SDF3.
type fieldSDF struct {
	f        *field.NodeField
	isovalue float64
	bb       sdf.Box3
}

// Evaluate returns isovalue - f(p); points outside the field sample as void.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	return s.isovalue - s.f.Sample(p)
}

// BoundingBox returns the field bounds grown by one node spacing so material
// touching the boundary closes.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// fieldSolid wraps a fieldSDF to implement kernel.Solid.
type fieldSolid struct {
	s     sdf.SDF3
	cells int
}

// BoundingBox returns the axis-aligned bounding box.
func (s *fieldSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel that picks its resolution from each field.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// NewWithResolution returns a kernel that meshes every solid with cells
// marching cubes along its longest axis.
func NewWithResolution(cells int) *SdfxKernel {
	return &SdfxKernel{cells: cells}
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) (*fieldSolid, error) {
	fs, ok := s.(*fieldSolid)
	if !ok || fs == nil {
		return nil, fmt.Errorf("sdfx: unsupported solid %T", s)
	}
	return fs, nil
}

// FieldSolid wraps the region of f at or above isovalue. The isovalue is
// clamped to [0,1].
func (k *SdfxKernel) FieldSolid(f *field.NodeField, isovalue float64) (kernel.Solid, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("sdfx: %w", err)
	}
	iso := field.Clamp01(isovalue)
	if iso != isovalue {
		log.Debugf("isovalue %v clamped to %.3f", isovalue, iso)
	}

	pad := f.Spacing()
	bb := sdf.Box3{Min: f.Bounds.Min.Sub(pad), Max: f.Bounds.Max.Add(pad)}

	cells := k.cells
	if cells <= 0 {
		longest := max(f.NX, f.NY, f.NZ)
		cells = min(max(cellsPerNode*longest, minMeshCells), maxMeshCells)
	}
	return &fieldSolid{s: &fieldSDF{f: f, isovalue: iso, bb: bb}, cells: cells}, nil
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Corners
// that sdfx emits once per triangle are welded by position, so neighbouring
// triangles share vertices and normals are averaged across them.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	solid, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(solid.cells)
	triangles := render.ToTriangles(solid.s, renderer)

	vertices := make([]float32, 0, len(triangles)*3)
	indices := make([]uint32, 0, len(triangles)*3)
	welded := make(map[[3]float32]uint32, len(triangles))

	vertex := func(v v3.Vec) uint32 {
		key := [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		if idx, ok := welded[key]; ok {
			return idx
		}
		idx := uint32(len(vertices) / 3)
		welded[key] = idx
		vertices = append(vertices, key[0], key[1], key[2])
		return idx
	}

	for _, tri := range triangles {
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			continue
		}
		a, b, c := vertex(tri[0]), vertex(tri[1]), vertex(tri[2])
		if a == b || b == c || c == a {
			continue
		}
		indices = append(indices, a, b, c)
	}

	log.Debugf("sdfx: %d triangles, %d vertices at %d cells", len(indices)/3, len(vertices)/3, solid.cells)
	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  kernel.ComputeVertexNormals(vertices, indices),
		Indices:  indices,
		PartName: PartName,
	}, nil
}
