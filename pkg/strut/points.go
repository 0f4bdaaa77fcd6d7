// Package strut reconstructs a density field as a sparse network of struts:
// dense cells become weighted points, nearby points are linked greedily by
// density, and the result is rendered as cubes joined by tubes. It is the
// fallback view for fields too thin for a watertight isosurface.
package strut

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("strut")

// Point is a cell centre kept by thresholding.
type Point struct {
	Position v3.Vec  `json:"position"`
	Density  float64 `json:"density"`
}

// ExtractPoints returns the centres of the cells whose clamped density is at
// least threshold, in z, y, x order. When more than maxPoints cells pass, the
// maxPoints densest are kept (ties keep grid order). A maxPoints of zero or
// less disables the budget.
func ExtractPoints(df *field.DensityField, threshold float64, maxPoints int) ([]Point, error) {
	if err := df.Validate(); err != nil {
		return nil, err
	}

	var pts []Point
	for z := 0; z < df.NZ; z++ {
		for y := 0; y < df.NY; y++ {
			for x := 0; x < df.NX; x++ {
				d := df.At(x, y, z)
				if d < threshold {
					continue
				}
				pts = append(pts, Point{Position: df.CellCenter(x, y, z), Density: d})
			}
		}
	}

	if maxPoints > 0 && len(pts) > maxPoints {
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].Density > pts[j].Density
		})
		log.Debugf("point budget: keeping %d of %d points", maxPoints, len(pts))
		pts = lo.Subset(pts, 0, uint(maxPoints))
	}
	return pts, nil
}
