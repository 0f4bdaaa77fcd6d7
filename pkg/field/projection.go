package field

import "math"

// minBeta is the sharpness below which projection degenerates to identity.
const minBeta = 1e-9

// HeavisideProjection applies the smoothed Heaviside step
//
//	(tanh(βη) + tanh(β(ρ−η))) / (tanh(βη) + tanh(β(1−η)))
//
// to every node and clamps the result to [0,1]. Larger beta sharpens the
// transition around the threshold eta.
func HeavisideProjection(f *NodeField, beta, eta float64) *NodeField {
	if beta <= minBeta || math.IsNaN(beta) {
		values, _ := ClampValues(f.Values)
		return &NodeField{Values: values, NX: f.NX, NY: f.NY, NZ: f.NZ, Bounds: f.Bounds}
	}

	out := &NodeField{Values: make([]float64, len(f.Values)), NX: f.NX, NY: f.NY, NZ: f.NZ, Bounds: f.Bounds}

	eta = Clamp01(eta)
	lo := math.Tanh(beta * eta)
	denom := lo + math.Tanh(beta*(1-eta))
	for i, v := range f.Values {
		rho := Clamp01(v)
		out.Values[i] = Clamp01((lo + math.Tanh(beta*(rho-eta))) / denom)
	}
	return out
}

// ScheduleBeta ramps beta linearly from start to end over rampIters
// iterations. Iterations before the ramp return start and iterations past it
// return end. A ramp of one iteration or less disables continuation.
func ScheduleBeta(iter, rampIters int, start, end float64) float64 {
	if rampIters <= 1 {
		return end
	}
	if iter <= 0 {
		return start
	}
	t := float64(iter) / float64(rampIters-1)
	if t >= 1 {
		return end
	}
	return start + (end-start)*t
}
