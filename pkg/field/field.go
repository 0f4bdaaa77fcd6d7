// Package field holds the scalar fields produced by the density solver and
// the post-processing applied to them before surface reconstruction.
//
// Every operation allocates and returns a new field. Inputs are never
// modified, so a solver frame can be handed to several consumers at once.
package field

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("field")

var (
	// ErrInvalidGrid is returned when any grid axis is not positive.
	ErrInvalidGrid = errors.New("invalid grid dimensions")
	// ErrEmptyField is returned when a field has no values.
	ErrEmptyField = errors.New("empty density buffer")
	// ErrSizeMismatch is returned when the value count disagrees with the grid shape.
	ErrSizeMismatch = errors.New("density buffer does not match grid shape")
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min v3.Vec `json:"min"`
	Max v3.Vec `json:"max"`
}

// Size returns the extent along each axis.
func (b Bounds) Size() v3.Vec {
	return b.Max.Sub(b.Min)
}

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float64 {
	return b.Size().Length()
}

// UnitBounds returns the bounds of a grid with unit cells anchored at the origin.
func UnitBounds(nx, ny, nz int) Bounds {
	return Bounds{Max: v3.Vec{X: float64(nx), Y: float64(ny), Z: float64(nz)}}
}

// DensityField is one solver snapshot: a density per grid cell.
type DensityField struct {
	Values []float64 `json:"densities"`
	NX     int       `json:"nx"`
	NY     int       `json:"ny"`
	NZ     int       `json:"nz"`
	Bounds Bounds    `json:"bounds"`
}

// Validate checks that the grid shape is usable.
func (f *DensityField) Validate() error {
	if f == nil {
		return errors.Wrap(ErrEmptyField, "field: nil density field")
	}
	return validateShape("density", f.Values, f.NX, f.NY, f.NZ)
}

// CellCount returns nx*ny*nz.
func (f *DensityField) CellCount() int {
	return f.NX * f.NY * f.NZ
}

// Index returns the flat index of cell (x, y, z).
func (f *DensityField) Index(x, y, z int) int {
	return x + f.NX*(y+f.NY*z)
}

// At returns the clamped density of cell (x, y, z).
func (f *DensityField) At(x, y, z int) float64 {
	return Clamp01(f.Values[f.Index(x, y, z)])
}

// CellSize returns the world-space size of one cell.
func (f *DensityField) CellSize() v3.Vec {
	s := f.Bounds.Size()
	return v3.Vec{X: s.X / float64(f.NX), Y: s.Y / float64(f.NY), Z: s.Z / float64(f.NZ)}
}

// CellCenter returns the world-space centre of cell (x, y, z).
func (f *DensityField) CellCenter(x, y, z int) v3.Vec {
	c := f.CellSize()
	return v3.Vec{
		X: f.Bounds.Min.X + (float64(x)+0.5)*c.X,
		Y: f.Bounds.Min.Y + (float64(y)+0.5)*c.Y,
		Z: f.Bounds.Min.Z + (float64(z)+0.5)*c.Z,
	}
}

func validateShape(kind string, values []float64, nx, ny, nz int) error {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return errors.Wrapf(ErrInvalidGrid, "field: %s grid %dx%dx%d", kind, nx, ny, nz)
	}
	if len(values) == 0 {
		return errors.Wrapf(ErrEmptyField, "field: %s grid %dx%dx%d", kind, nx, ny, nz)
	}
	if len(values) != nx*ny*nz {
		return errors.Wrapf(ErrSizeMismatch, "field: %s grid %dx%dx%d has %d values", kind, nx, ny, nz, len(values))
	}
	return nil
}

// Clamp01 maps a raw density into [0,1]. Non-finite values become 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampValues returns a clamped copy of values and the number of non-finite
// entries that were replaced by 0.
func ClampValues(values []float64) ([]float64, int) {
	out := make([]float64, len(values))
	nonFinite := 0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite++
		}
		out[i] = Clamp01(v)
	}
	return out, nonFinite
}
