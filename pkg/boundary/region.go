// Package boundary turns goal selections on a design mesh into the anchor
// and load markers consumed by the density solver.
package boundary

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/topomesh/pkg/kernel"
)

const (
	// minArea is the total region area below which the area-weighted
	// centroid falls back to the arithmetic one.
	minArea = 1e-12
	// coincidentEps is the spread below which a region is a single point.
	coincidentEps = 1e-9
)

// DefaultNormal is reported for regions whose normal is undefined.
var DefaultNormal = v3.Vec{X: 0, Y: 1, Z: 0}

// RegionMetadata is the analysis of one selected vertex region.
type RegionMetadata struct {
	Indices      []int    `json:"indices"`
	Positions    []v3.Vec `json:"positions"`
	Centroid     v3.Vec   `json:"centroid"`
	AreaCentroid v3.Vec   `json:"areaCentroid"`
	Area         float64  `json:"area"`
	Normal       v3.Vec   `json:"normal"`
	Min          v3.Vec   `json:"min"`
	Max          v3.Vec   `json:"max"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
}

// AnalyzeRegion resolves indices against the mesh vertices and measures the
// region they select. Out-of-range indices are skipped and reported. An
// invalid region still returns its positions and centroid, with zero area
// and DefaultNormal.
func AnalyzeRegion(mesh *kernel.Mesh, indices []int) RegionMetadata {
	md := RegionMetadata{
		Indices: indices,
		Normal:  DefaultNormal,
		Valid:   true,
	}

	count := 0
	if mesh != nil {
		count = mesh.VertexCount()
	}
	for _, idx := range indices {
		if idx < 0 || idx >= count {
			md.Errors = append(md.Errors, fmt.Sprintf("vertex index %d out of range [0,%d)", idx, count))
			continue
		}
		md.Positions = append(md.Positions, mesh.Position(idx))
	}

	if len(md.Positions) == 0 {
		md.Errors = append(md.Errors, "region has no vertices")
		md.Valid = false
		return md
	}

	md.Centroid = centroid(md.Positions)
	md.AreaCentroid = md.Centroid
	md.Min, md.Max = extent(md.Positions)

	if len(md.Positions) >= 3 {
		if c, area := areaCentroid(md.Positions); area >= minArea {
			md.AreaCentroid = c
			md.Area = area
		}
		md.Normal = newellNormal(md.Positions)
	}

	if md.Max.Sub(md.Min).Length() <= coincidentEps {
		md.Errors = append(md.Errors, "region is degenerate: all vertices coincide")
	}

	if len(md.Errors) > 0 {
		md.Valid = false
		md.Area = 0
		md.Normal = DefaultNormal
	}
	return md
}

func centroid(ps []v3.Vec) v3.Vec {
	var sum v3.Vec
	for _, p := range ps {
		sum = sum.Add(p)
	}
	return sum.DivScalar(float64(len(ps)))
}

func extent(ps []v3.Vec) (min, max v3.Vec) {
	min, max = ps[0], ps[0]
	for _, p := range ps[1:] {
		min = v3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = v3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max
}

// areaCentroid fans the polygon from its first vertex and returns the
// area-weighted mean of the triangle centroids and the total area.
func areaCentroid(ps []v3.Vec) (v3.Vec, float64) {
	var weighted v3.Vec
	var total float64
	p0 := ps[0]
	for i := 1; i+1 < len(ps); i++ {
		a, b := ps[i], ps[i+1]
		area := 0.5 * a.Sub(p0).Cross(b.Sub(p0)).Length()
		c := p0.Add(a).Add(b).DivScalar(3)
		weighted = weighted.Add(c.MulScalar(area))
		total += area
	}
	if total < minArea {
		return v3.Vec{}, total
	}
	return weighted.DivScalar(total), total
}

// newellNormal returns the unit polygon normal by Newell's method, or
// DefaultNormal when it vanishes.
func newellNormal(ps []v3.Vec) v3.Vec {
	var n v3.Vec
	for i, cur := range ps {
		next := ps[(i+1)%len(ps)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	l := n.Length()
	if l < minArea {
		return DefaultNormal
	}
	return n.DivScalar(l)
}
