package field

import "math"

// DefaultFilterMaxNodes is the node-count ceiling above which Filter is skipped.
const DefaultFilterMaxNodes = 250_000

type filterTap struct {
	dx, dy, dz int
	weight     float64
}

// filterTaps precomputes the cone weights rmin−d for every integer offset
// closer than rmin.
func filterTaps(rmin float64) []filterTap {
	r := int(math.Ceil(rmin)) - 1
	if r < 0 {
		r = 0
	}
	var taps []filterTap
	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				d := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
				if w := rmin - d; w > 0 {
					taps = append(taps, filterTap{dx: dx, dy: dy, dz: dz, weight: w})
				}
			}
		}
	}
	return taps
}

// Filter smooths the field with a radius-limited cone filter to suppress
// checkerboard patterns. rmin is measured in node spacings. The filter is
// skipped, returning f unchanged, when rmin is not positive or the field has
// more than maxNodes nodes (maxNodes <= 0 means DefaultFilterMaxNodes).
func Filter(f *NodeField, rmin float64, maxNodes int) *NodeField {
	if rmin <= 0 || math.IsNaN(rmin) {
		return f
	}
	if maxNodes <= 0 {
		maxNodes = DefaultFilterMaxNodes
	}
	if f.NodeCount() > maxNodes {
		log.Debugf("filter skipped: %d nodes exceeds ceiling %d", f.NodeCount(), maxNodes)
		return f
	}

	taps := filterTaps(rmin)
	out := &NodeField{Values: make([]float64, len(f.Values)), NX: f.NX, NY: f.NY, NZ: f.NZ, Bounds: f.Bounds}

	for z := 0; z < f.NZ; z++ {
		for y := 0; y < f.NY; y++ {
			for x := 0; x < f.NX; x++ {
				var sum, wsum float64
				for _, t := range taps {
					sx, sy, sz := x+t.dx, y+t.dy, z+t.dz
					if sx < 0 || sy < 0 || sz < 0 || sx >= f.NX || sy >= f.NY || sz >= f.NZ {
						continue
					}
					sum += t.weight * Clamp01(f.At(sx, sy, sz))
					wsum += t.weight
				}
				if wsum > 0 {
					out.Values[out.Index(x, y, z)] = sum / wsum
				}
			}
		}
	}
	return out
}
