package strut

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// minLength is the shortest edge worth keeping.
const minLength = 1e-9

// Edge links two points by index.
type Edge struct {
	A       int     `json:"a"`
	B       int     `json:"b"`
	Length  float64 `json:"length"`
	Density float64 `json:"density"` // mean of the endpoint densities
}

// hashKey names one cell of the spatial hash.
type hashKey struct {
	x, y, z int64
}

func hashOf(p v3.Vec, cell float64) hashKey {
	return hashKey{
		x: int64(math.Floor(p.X / cell)),
		y: int64(math.Floor(p.Y / cell)),
		z: int64(math.Floor(p.Z / cell)),
	}
}

// BuildEdges links points no further than maxSpan apart. Candidate pairs are
// found through a spatial hash with maxSpan-sized cells, so only the 27 cells
// around each point are scanned. Candidates are taken densest first (shorter
// first on ties) while both endpoints have fewer than maxDegree edges.
func BuildEdges(points []Point, maxSpan float64, maxDegree int) []Edge {
	if len(points) < 2 || maxSpan <= 0 || maxDegree <= 0 {
		return nil
	}

	buckets := make(map[hashKey][]int)
	for i, p := range points {
		k := hashOf(p.Position, maxSpan)
		buckets[k] = append(buckets[k], i)
	}

	var candidates []Edge
	for i, p := range points {
		k := hashOf(p.Position, maxSpan)
		for dz := int64(-1); dz <= 1; dz++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dx := int64(-1); dx <= 1; dx++ {
					for _, j := range buckets[hashKey{k.x + dx, k.y + dy, k.z + dz}] {
						if j <= i {
							continue
						}
						d := points[j].Position.Sub(p.Position).Length()
						if d < minLength || d > maxSpan {
							continue
						}
						candidates = append(candidates, Edge{
							A:       i,
							B:       j,
							Length:  d,
							Density: 0.5 * (p.Density + points[j].Density),
						})
					}
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Density != b.Density {
			return a.Density > b.Density
		}
		if a.Length != b.Length {
			return a.Length < b.Length
		}
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})

	degree := make([]int, len(points))
	var edges []Edge
	for _, e := range candidates {
		if degree[e.A] >= maxDegree || degree[e.B] >= maxDegree {
			continue
		}
		degree[e.A]++
		degree[e.B]++
		edges = append(edges, e)
	}
	return edges
}

// chain links the points in order of decreasing density.
func chain(points []Point) []Edge {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return points[order[i]].Density > points[order[j]].Density
	})

	var edges []Edge
	for i := 0; i+1 < len(order); i++ {
		a, b := points[order[i]], points[order[i+1]]
		d := b.Position.Sub(a.Position).Length()
		if d < minLength {
			continue
		}
		edges = append(edges, Edge{A: order[i], B: order[i+1], Length: d, Density: 0.5 * (a.Density + b.Density)})
	}
	return edges
}
