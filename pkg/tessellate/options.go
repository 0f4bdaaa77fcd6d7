package tessellate

import (
	"github.com/chazu/topomesh/pkg/smooth"
	"github.com/chazu/topomesh/pkg/strut"
	"github.com/chazu/topomesh/pkg/study"
)

// Projection defaults for a study that sets only some projection fields.
const (
	DefaultEta       = 0.5
	DefaultBetaStart = 1.0
	DefaultBetaEnd   = 8.0
	DefaultRampIters = 50
)

// OptionsFrom maps study pipeline settings onto Options. A stage is enabled
// only when at least one of its fields is set.
func OptionsFrom(p study.PipelineSpec) Options {
	opts := Options{Isovalue: p.Isovalue}
	if p.Cubic != nil {
		opts.Cubic = *p.Cubic
	}
	if p.Refine != nil {
		opts.Refine = *p.Refine
	}

	if p.FilterRadius != nil {
		opts.Filter = &FilterOptions{Radius: *p.FilterRadius}
		if p.FilterMaxNodes != nil {
			opts.Filter.MaxNodes = *p.FilterMaxNodes
		}
	}

	if p.Eta != nil || p.BetaStart != nil || p.BetaEnd != nil || p.RampIters != nil {
		opts.Projection = &ProjectionOptions{
			Eta:       floatOr(p.Eta, DefaultEta),
			BetaStart: floatOr(p.BetaStart, DefaultBetaStart),
			BetaEnd:   floatOr(p.BetaEnd, DefaultBetaEnd),
			RampIters: intOr(p.RampIters, DefaultRampIters),
		}
	}

	if p.SmoothIterations != nil {
		opts.Smoothing = &smooth.Options{
			Iterations: *p.SmoothIterations,
			Lambda:     p.Lambda,
			Mu:         p.Mu,
		}
	}
	return opts
}

// StrutOptionsFrom maps study strut settings onto strut options and a style.
// Unset fields keep the strut package defaults.
func StrutOptionsFrom(s study.StrutSpec) (strut.Options, strut.Style, error) {
	opts := strut.Options{
		Threshold: floatOr(s.Threshold, 0),
		MaxPoints: intOr(s.MaxPoints, 0),
		MaxSpan:   floatOr(s.MaxSpan, 0),
		MaxDegree: intOr(s.MaxDegree, 0),
		Radius:    floatOr(s.Radius, 0),
	}
	name := ""
	if s.Style != nil {
		name = *s.Style
	}
	style, err := strut.ParseStyle(name)
	if err != nil {
		return opts, style, err
	}
	return opts, style, nil
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
