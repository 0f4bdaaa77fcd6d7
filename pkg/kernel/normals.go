package kernel

import "math"

// DefaultNormal is used for vertices whose normal cannot be determined.
var DefaultNormal = [3]float32{0, 1, 0}

// ComputeVertexNormals generates per-vertex normals by averaging the
// area-weighted face normals of all triangles incident on each vertex.
// Vertices with no incident area get DefaultNormal.
func ComputeVertexNormals(vertices []float32, indices []uint32) []float32 {
	numVerts := len(vertices) / 3
	acc := make([]float64, numVerts*3)

	numTris := len(indices) / 3
	for t := 0; t < numTris; t++ {
		i0 := indices[t*3+0]
		i1 := indices[t*3+1]
		i2 := indices[t*3+2]
		if int(i0) >= numVerts || int(i1) >= numVerts || int(i2) >= numVerts {
			continue
		}

		ax, ay, az := float64(vertices[i0*3]), float64(vertices[i0*3+1]), float64(vertices[i0*3+2])
		bx, by, bz := float64(vertices[i1*3]), float64(vertices[i1*3+1]), float64(vertices[i1*3+2])
		cx, cy, cz := float64(vertices[i2*3]), float64(vertices[i2*3+1]), float64(vertices[i2*3+2])

		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az

		// Unnormalized face normal; its length is twice the triangle area.
		nx := e1y*e2z - e1z*e2y
		ny := e1z*e2x - e1x*e2z
		nz := e1x*e2y - e1y*e2x

		for _, idx := range []uint32{i0, i1, i2} {
			acc[idx*3+0] += nx
			acc[idx*3+1] += ny
			acc[idx*3+2] += nz
		}
	}

	normals := make([]float32, numVerts*3)
	for i := 0; i < numVerts; i++ {
		nx, ny, nz := acc[i*3], acc[i*3+1], acc[i*3+2]
		length := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = float32(nx / length)
			normals[i*3+1] = float32(ny / length)
			normals[i*3+2] = float32(nz / length)
		} else {
			copy(normals[i*3:i*3+3], DefaultNormal[:])
		}
	}
	return normals
}

// RecomputeNormals replaces the mesh normals with ComputeVertexNormals.
func (m *Mesh) RecomputeNormals() {
	m.Normals = ComputeVertexNormals(m.Vertices, m.Indices)
}
