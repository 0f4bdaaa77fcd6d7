// Package smooth relaxes reconstructed meshes.
package smooth

import (
	"github.com/samber/lo"

	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("smooth")

const (
	// DefaultLambda is the shrinking pass weight.
	DefaultLambda = 0.5
	// DefaultMu is the inflating pass weight.
	DefaultMu = -0.53
	// MaxIterations bounds the iteration count.
	MaxIterations = 200
)

// Options controls Taubin smoothing. A nil Lambda or Mu selects the default
// weight; zero is honoured and disables that pass.
type Options struct {
	Iterations int
	Lambda     *float64
	Mu         *float64
}

// Taubin applies Iterations rounds of λ/μ Laplacian relaxation: each round
// moves every vertex toward the mean of its neighbours by Lambda, then by Mu.
// The negative second pass undoes the shrinkage of the first. A mesh without
// indices is read as a plain triangle list. Zero iterations or an empty mesh
// return m itself; otherwise a new mesh with recomputed normals is returned.
func Taubin(m *kernel.Mesh, opts Options) *kernel.Mesh {
	iters := opts.Iterations
	if iters > MaxIterations {
		iters = MaxIterations
	}
	if iters <= 0 || m == nil || m.IsEmpty() {
		return m
	}
	lambda, mu := DefaultLambda, DefaultMu
	if opts.Lambda != nil {
		lambda = *opts.Lambda
	}
	if opts.Mu != nil {
		mu = *opts.Mu
	}

	out := m.Clone()
	if len(out.Indices) == 0 {
		out.Indices = sequentialIndices(out.VertexCount())
	}
	adj := adjacency(out.VertexCount(), out.Indices)

	scratch := make([]float32, len(out.Vertices))
	for i := 0; i < iters; i++ {
		relax(out.Vertices, scratch, adj, lambda)
		relax(out.Vertices, scratch, adj, mu)
	}

	out.RecomputeNormals()
	log.Debugf("taubin: %d iterations over %d vertices (λ=%.3f μ=%.3f)", iters, out.VertexCount(), lambda, mu)
	return out
}

// sequentialIndices numbers n vertices as consecutive triangles, dropping
// any trailing partial triangle.
func sequentialIndices(n int) []uint32 {
	n -= n % 3
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

// adjacency returns the distinct neighbours of every vertex.
func adjacency(n int, indices []uint32) [][]uint32 {
	adj := make([][]uint32, n)
	link := func(a, b uint32) {
		if int(a) >= n || int(b) >= n || a == b {
			return
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		link(a, b)
		link(b, c)
		link(c, a)
	}
	for i := range adj {
		adj[i] = lo.Uniq(adj[i])
	}
	return adj
}

// relax moves each vertex by weight toward its neighbour mean. All vertices
// read the positions from before the pass.
func relax(vertices, scratch []float32, adj [][]uint32, weight float64) {
	copy(scratch, vertices)
	for i, nbrs := range adj {
		if len(nbrs) == 0 {
			continue
		}
		var sx, sy, sz float64
		for _, j := range nbrs {
			sx += float64(scratch[j*3])
			sy += float64(scratch[j*3+1])
			sz += float64(scratch[j*3+2])
		}
		inv := 1 / float64(len(nbrs))
		px, py, pz := float64(scratch[i*3]), float64(scratch[i*3+1]), float64(scratch[i*3+2])
		vertices[i*3] = float32(px + weight*(sx*inv-px))
		vertices[i*3+1] = float32(py + weight*(sy*inv-py))
		vertices[i*3+2] = float32(pz + weight*(sz*inv-pz))
	}
}
