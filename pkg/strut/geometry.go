package strut

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/topomesh/pkg/kernel"
)

// Style selects how thick the tubes are drawn.
type Style int

const (
	StyleCurves    Style = iota // thin curve network
	StyleMultipipe              // thick pipes
)

func (s Style) String() string {
	switch s {
	case StyleCurves:
		return "curves"
	case StyleMultipipe:
		return "multipipe"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle maps a style name to a Style. The empty name is StyleCurves.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "", "curves":
		return StyleCurves, nil
	case "multipipe":
		return StyleMultipipe, nil
	default:
		return StyleCurves, fmt.Errorf("strut: unknown style %q", name)
	}
}

func (s Style) scale() float64 {
	if s == StyleMultipipe {
		return 3
	}
	return 1
}

const (
	tubeSides    = 8
	cubeVertices = 24
	tubeVertices = 2 * (tubeSides + 1)

	// cubeScale is the half-size of a full-density point cube in cells.
	cubeScale = 0.2
)

var (
	lowColor  = kernel.Color{R: 0.35, G: 0.55, B: 0.9}
	highColor = kernel.Color{R: 0.95, G: 0.45, B: 0.2}
)

func densityColor(d float64) kernel.Color {
	return lowColor.Lerp(highColor, d)
}

// densityScale maps a density to a size factor in [0.5, 1].
func densityScale(d float64) float64 {
	return 0.5 + 0.5*d
}

// Mesh renders the network: a cube per point sized by its density and an
// open tube per edge whose radius follows the endpoint densities. Both
// styles share the same topology.
func (n *Network) Mesh(style Style) *kernel.Mesh {
	b := kernel.NewBuilder("struts-" + style.String())
	for _, p := range n.Points {
		addCube(b, p.Position, cubeScale*n.CellSize*densityScale(p.Density), densityColor(p.Density))
	}

	radius := n.Radius * n.CellSize * style.scale()
	for _, e := range n.Edges {
		a, c := n.Points[e.A], n.Points[e.B]
		addTube(b, a.Position, c.Position,
			radius*densityScale(a.Density), radius*densityScale(c.Density),
			densityColor(a.Density), densityColor(c.Density))
	}
	return b.Mesh()
}

var cubeFaces = [6]struct {
	normal, u, v v3.Vec
}{
	{v3.Vec{X: 1}, v3.Vec{Y: 1}, v3.Vec{Z: 1}},
	{v3.Vec{X: -1}, v3.Vec{Z: 1}, v3.Vec{Y: 1}},
	{v3.Vec{Y: 1}, v3.Vec{Z: 1}, v3.Vec{X: 1}},
	{v3.Vec{Y: -1}, v3.Vec{X: 1}, v3.Vec{Z: 1}},
	{v3.Vec{Z: 1}, v3.Vec{X: 1}, v3.Vec{Y: 1}},
	{v3.Vec{Z: -1}, v3.Vec{Y: 1}, v3.Vec{X: 1}},
}

// addCube adds an axis-aligned cube with flat-shaded faces. Each face's u×v
// equals its normal so the quads wind outward.
func addCube(b *kernel.Builder, center v3.Vec, half float64, color kernel.Color) {
	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		var idx [4]uint32
		for i, c := range corners {
			p := center.Add(f.normal.MulScalar(half)).
				Add(f.u.MulScalar(c[0] * half)).
				Add(f.v.MulScalar(c[1] * half))
			idx[i] = b.AddVertex(kernel.Vertex{
				Position: p,
				Normal:   f.normal,
				U:        0.5 * (c[0] + 1),
				V:        0.5 * (c[1] + 1),
				Color:    color,
			})
		}
		b.AddQuad(idx[0], idx[1], idx[2], idx[3])
	}
}

// frame returns two unit vectors perpendicular to axis and to each other,
// with u×v = axis.
func frame(axis v3.Vec) (u, v v3.Vec) {
	helper := v3.Vec{X: 1}
	if math.Abs(axis.X) > 0.9 {
		helper = v3.Vec{Y: 1}
	}
	u = helper.Cross(axis)
	u = u.DivScalar(u.Length())
	v = axis.Cross(u)
	return u, v
}

// addTube adds an open cylinder from a to c with one ring of vertices at
// each end. The ring seam is duplicated so U runs 0..1 around the tube.
func addTube(b *kernel.Builder, a, c v3.Vec, ra, rc float64, ca, cc kernel.Color) {
	d := c.Sub(a)
	length := d.Length()
	if length < minLength {
		return
	}
	u, v := frame(d.DivScalar(length))

	ring := func(center v3.Vec, r, vcoord float64, color kernel.Color) []uint32 {
		out := make([]uint32, tubeSides+1)
		for k := 0; k <= tubeSides; k++ {
			theta := 2 * math.Pi * float64(k) / tubeSides
			radial := u.MulScalar(math.Cos(theta)).Add(v.MulScalar(math.Sin(theta)))
			out[k] = b.AddVertex(kernel.Vertex{
				Position: center.Add(radial.MulScalar(r)),
				Normal:   radial,
				U:        float64(k) / tubeSides,
				V:        vcoord,
				Color:    color,
			})
		}
		return out
	}

	ringA := ring(a, ra, 0, ca)
	ringC := ring(c, rc, 1, cc)
	for k := 0; k < tubeSides; k++ {
		b.AddQuad(ringA[k], ringA[k+1], ringC[k+1], ringC[k])
	}
}
