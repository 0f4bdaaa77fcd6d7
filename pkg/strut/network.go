package strut

import (
	"fmt"
	"math"

	"github.com/chazu/topomesh/pkg/field"
)

const (
	// DefaultThreshold is the density a cell needs to become a point.
	DefaultThreshold = 0.3
	// DefaultMaxPoints caps the point set.
	DefaultMaxPoints = 4000
	// DefaultMaxDegree caps the edges per point.
	DefaultMaxDegree = 4
	// DefaultRadius is the thin tube radius as a fraction of the smallest cell edge.
	DefaultRadius = 0.12

	// spanSlack widens the default span past the cell diagonal so all 26
	// neighbours of a cell are in reach.
	spanSlack = 1.01
)

// Options controls reconstruction. Zero values select the defaults; a zero
// MaxSpan means one cell diagonal.
type Options struct {
	Threshold float64
	MaxPoints int
	MaxSpan   float64
	MaxDegree int
	Radius    float64
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = DefaultMaxPoints
	}
	if o.MaxDegree <= 0 {
		o.MaxDegree = DefaultMaxDegree
	}
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	return o
}

// Stage records which rung of the fallback ladder produced the edges.
type Stage int

const (
	StageSpan    Stage = iota // configured span and degree cap
	StageWidened              // default degree cap, span of at least half the bounds diagonal
	StageChain                // points linked in density order
)

func (s Stage) String() string {
	switch s {
	case StageSpan:
		return "span"
	case StageWidened:
		return "widened"
	case StageChain:
		return "chain"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Network is a reconstructed strut skeleton.
type Network struct {
	Points []Point `json:"points"`
	Edges  []Edge  `json:"edges"`
	Stage  Stage   `json:"stage"`
	Span   float64 `json:"span"` // span the edges were built with

	// CellSize is the smallest cell edge of the source grid; geometry is
	// scaled by it.
	CellSize float64 `json:"cellSize"`
	Radius   float64 `json:"radius"`
}

// Reconstruct thresholds df into points and links them. If no edge forms at
// the configured span, the default degree cap and a span of at least half the
// bounds diagonal are tried; if that still yields nothing the points are
// chained by density. Fewer than two points give a network without edges.
func Reconstruct(df *field.DensityField, opts Options) (*Network, error) {
	opts = opts.withDefaults()
	pts, err := ExtractPoints(df, opts.Threshold, opts.MaxPoints)
	if err != nil {
		return nil, err
	}

	cell := df.CellSize()
	span := opts.MaxSpan
	if span <= 0 {
		span = spanSlack * cell.Length()
	}
	n := &Network{
		Points:   pts,
		Edges:    []Edge{},
		Stage:    StageSpan,
		Span:     span,
		CellSize: math.Min(cell.X, math.Min(cell.Y, cell.Z)),
		Radius:   opts.Radius,
	}

	if len(pts) < 2 {
		log.Debugf("%d points above %.3f; no edges to build", len(pts), opts.Threshold)
		return n, nil
	}

	if edges := BuildEdges(pts, span, opts.MaxDegree); len(edges) > 0 {
		n.Edges = edges
		log.Debugf("%d points, %d edges at span %.4f", len(pts), len(edges), span)
		return n, nil
	}

	widened := math.Max(span, 0.5*df.Bounds.Diagonal())
	log.Warnf("no edges at span %.4f; retrying at %.4f", span, widened)
	if edges := BuildEdges(pts, widened, DefaultMaxDegree); len(edges) > 0 {
		n.Edges, n.Stage, n.Span = edges, StageWidened, widened
		return n, nil
	}

	log.Warnf("no edges at span %.4f; chaining %d points by density", widened, len(pts))
	n.Edges, n.Stage, n.Span = chain(pts), StageChain, widened
	return n, nil
}

// Counts summarises a network for diagnostics.
type Counts struct {
	Points   int `json:"pointCount"`
	Curves   int `json:"curveCount"`
	Vertices int `json:"vertexCount"`
}

// Counts reports the point and edge counts and the vertex count of the
// mesh Mesh would build.
func (n *Network) Counts() Counts {
	return Counts{
		Points:   len(n.Points),
		Curves:   len(n.Edges),
		Vertices: len(n.Points)*cubeVertices + len(n.Edges)*tubeVertices,
	}
}
