package study

import v3 "github.com/deadsy/sdfx/vec/v3"

// Params is the kind-specific parameter set of a goal: AnchorParams or
// LoadParams.
type Params interface {
	goalParams()
}

// AnchorParams configures a support.
type AnchorParams struct {
	// Fixed masks the constrained axes; nil fixes all three.
	Fixed *[3]bool `json:"fixed,omitempty"`
}

func (AnchorParams) goalParams() {}

// ResolveFixed returns the constrained axes.
func (p AnchorParams) ResolveFixed() [3]bool {
	if p.Fixed == nil {
		return [3]bool{true, true, true}
	}
	return *p.Fixed
}

// LoadParams configures an applied force. The force may be given as a
// vector or as scalar components under either naming.
type LoadParams struct {
	Force  *v3.Vec  `json:"force,omitempty"`
	ForceX *float64 `json:"forceX,omitempty"`
	ForceY *float64 `json:"forceY,omitempty"`
	ForceZ *float64 `json:"forceZ,omitempty"`
	FX     *float64 `json:"fx,omitempty"`
	FY     *float64 `json:"fy,omitempty"`
	FZ     *float64 `json:"fz,omitempty"`
}

func (LoadParams) goalParams() {}

// DefaultLoadForce is applied when a load names no force.
var DefaultLoadForce = v3.Vec{X: 0, Y: -1, Z: 0}

// ResolveForce picks the force of a load: the Force vector, else any of
// ForceX/ForceY/ForceZ, else any of FX/FY/FZ, else DefaultLoadForce. Unset
// components of a scalar group are 0.
func ResolveForce(p LoadParams) v3.Vec {
	if p.Force != nil {
		return *p.Force
	}
	if p.ForceX != nil || p.ForceY != nil || p.ForceZ != nil {
		return v3.Vec{X: deref(p.ForceX), Y: deref(p.ForceY), Z: deref(p.ForceZ)}
	}
	if p.FX != nil || p.FY != nil || p.FZ != nil {
		return v3.Vec{X: deref(p.FX), Y: deref(p.FY), Z: deref(p.FZ)}
	}
	return DefaultLoadForce
}

// GoalForce returns the resolved force of a goal. Goals without load
// parameters get DefaultLoadForce.
func GoalForce(g Goal) v3.Vec {
	if p, ok := g.Params.(LoadParams); ok {
		return ResolveForce(p)
	}
	return DefaultLoadForce
}

// GoalFixed returns the constrained axes of a goal. Goals without anchor
// parameters are fully fixed.
func GoalFixed(g Goal) [3]bool {
	if p, ok := g.Params.(AnchorParams); ok {
		return p.ResolveFixed()
	}
	return [3]bool{true, true, true}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s.
func String(s string) *string { return &s }
