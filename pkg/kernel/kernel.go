// Package kernel defines the render mesh shared by every reconstruction path
// and the abstract geometry kernel interface. Implementations (the native
// marching cubes in pkg/isosurface, sdfx in pkg/kernel/sdfx) turn a node
// field into triangles behind this interface, which lets the orchestration
// swap backends without changing the rest of the system.
package kernel

import "github.com/chazu/topomesh/pkg/field"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// FieldSolid wraps the region of f at or above isovalue as a solid.
	FieldSolid(f *field.NodeField, isovalue float64) (Solid, error)

	// ToMesh tessellates a solid into a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
