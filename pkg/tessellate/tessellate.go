// Package tessellate turns one solver frame into render meshes. Isosurface
// runs the field processing chain and marches the result; Struts builds the
// strut skeleton of the same field. Every stage is optional and an unset
// option passes the data through unchanged.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/isosurface"
	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
	"github.com/chazu/topomesh/pkg/smooth"
	"github.com/chazu/topomesh/pkg/strut"
)

var log = logging.Named("tessellate")

// DefaultIsovalue is used when Options.Isovalue is nil.
const DefaultIsovalue = 0.5

// FilterOptions enables the radius filter.
type FilterOptions struct {
	Radius   float64 // in node units; ≤ 0 disables the filter
	MaxNodes int     // node ceiling; ≤ 0 selects field.DefaultFilterMaxNodes
}

// ProjectionOptions enables Heaviside projection with a β continuation ramp.
type ProjectionOptions struct {
	Eta       float64
	BetaStart float64
	BetaEnd   float64
	RampIters int
}

// Options selects the stages of Isosurface. A nil pointer or zero value
// skips its stage.
type Options struct {
	Isovalue   *float64
	Cubic      bool
	Filter     *FilterOptions
	Projection *ProjectionOptions
	Refine     int
	Smoothing  *smooth.Options

	// Kernel replaces the native marching cubes when set.
	Kernel kernel.Kernel
}

// Result is the outcome of one Isosurface call.
type Result struct {
	Mesh     *kernel.Mesh
	Isovalue float64 // isovalue after clamping
	Beta     float64 // 0 when projection was skipped
	Nodes    int     // node count of the field that was meshed

	// Degenerate is set when the isovalue lies outside the observed range of
	// the meshed field, so the surface is all solid or all void.
	Degenerate bool
}

// Isosurface meshes the density field df at solver iteration iter:
// clamp the isovalue, optionally resample to a cubic grid, average cells
// onto nodes, filter, project, refine, march and smooth.
func Isosurface(df *field.DensityField, iter int, opts Options) (*Result, error) {
	if err := df.Validate(); err != nil {
		return nil, err
	}

	iso := DefaultIsovalue
	if opts.Isovalue != nil {
		iso = *opts.Isovalue
	}
	if math.IsNaN(iso) || iso < 0 || iso > 1 {
		clamped := field.Clamp01(iso)
		log.Warnf("isovalue %v outside [0,1], clamped to %v", iso, clamped)
		iso = clamped
	}

	src := df
	if opts.Cubic {
		src = field.ToCubicGrid(df)
	}

	nodes, err := field.BuildNodeField(src)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	if f := opts.Filter; f != nil && f.Radius > 0 {
		maxNodes := f.MaxNodes
		if maxNodes <= 0 {
			maxNodes = field.DefaultFilterMaxNodes
		}
		nodes = field.Filter(nodes, f.Radius, maxNodes)
	}

	res := &Result{Isovalue: iso}
	if p := opts.Projection; p != nil {
		res.Beta = field.ScheduleBeta(iter, p.RampIters, p.BetaStart, p.BetaEnd)
		nodes = field.HeavisideProjection(nodes, res.Beta, p.Eta)
	}

	if opts.Refine > 1 {
		nodes = field.Resample(nodes, opts.Refine)
	}
	res.Nodes = nodes.NodeCount()

	if lo, hi := field.Range(nodes.Values); iso < lo || iso > hi {
		res.Degenerate = true
	}

	var mesh *kernel.Mesh
	if opts.Kernel != nil {
		solid, err := opts.Kernel.FieldSolid(nodes, iso)
		if err != nil {
			return nil, fmt.Errorf("tessellate: kernel solid: %w", err)
		}
		if mesh, err = opts.Kernel.ToMesh(solid); err != nil {
			return nil, fmt.Errorf("tessellate: kernel mesh: %w", err)
		}
	} else {
		mesh, err = isosurface.March(isosurface.FromNodeField(nodes), iso)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
	}

	if opts.Smoothing != nil {
		mesh = smooth.Taubin(mesh, *opts.Smoothing)
	}
	res.Mesh = mesh

	log.Debugf("iter %d: %d nodes, β=%.3f, %d triangles", iter, res.Nodes, res.Beta, mesh.TriangleCount())
	return res, nil
}

// StrutResult is the outcome of one Struts call.
type StrutResult struct {
	Network *strut.Network
	Mesh    *kernel.Mesh
	Counts  strut.Counts
}

// Struts reconstructs the strut skeleton of df and tessellates it in style.
func Struts(df *field.DensityField, opts strut.Options, style strut.Style) (*StrutResult, error) {
	n, err := strut.Reconstruct(df, opts)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	res := &StrutResult{
		Network: n,
		Mesh:    n.Mesh(style),
		Counts:  n.Counts(),
	}
	log.Debugf("struts (%s): %d points, %d curves via %s", style, res.Counts.Points, res.Counts.Curves, n.Stage)
	return res, nil
}
