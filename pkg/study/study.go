// Package study defines the world state handed to the density-field
// pipeline: the boundary goals selected on a design mesh and the
// reconstruction settings. A Study is produced by evaluating a study script
// and is never mutated afterwards; each evaluation builds a new one.
package study

import "fmt"

// GoalKind distinguishes supports from applied forces.
type GoalKind int

const (
	GoalAnchor GoalKind = iota // fixed support
	GoalLoad                   // applied force
)

func (k GoalKind) String() string {
	switch k {
	case GoalAnchor:
		return "anchor"
	case GoalLoad:
		return "load"
	default:
		return fmt.Sprintf("GoalKind(%d)", int(k))
	}
}

// Placement selects how a goal region becomes markers.
type Placement int

const (
	PlacePerVertex Placement = iota // one marker per selected vertex
	PlaceCentroid                   // one marker at the area-weighted centroid
)

func (p Placement) String() string {
	switch p {
	case PlacePerVertex:
		return "vertices"
	case PlaceCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// ParsePlacement accepts "vertices" (or "") and "centroid".
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "vertices":
		return PlacePerVertex, nil
	case "centroid":
		return PlaceCentroid, nil
	}
	return PlacePerVertex, fmt.Errorf("invalid placement %q, expected vertices or centroid", s)
}

// Goal is one boundary-condition request on the design mesh.
type Goal struct {
	Name      string    `json:"name"`
	Kind      GoalKind  `json:"kind"`
	Elements  []int     `json:"elements,omitempty"` // selected vertex indices
	Params    Params    `json:"-"`
	Placement Placement `json:"placement"`
}

// HasSelection reports whether the goal names explicit vertices.
func (g Goal) HasSelection() bool {
	return len(g.Elements) > 0
}

// Study is the complete input of one optimisation run.
type Study struct {
	Name     string        `json:"name"`
	Goals    []Goal        `json:"goals"`
	Pipeline *PipelineSpec `json:"pipeline,omitempty"`
	Struts   *StrutSpec    `json:"struts,omitempty"`
}

// New creates an empty study.
func New(name string) *Study {
	return &Study{Name: name}
}

// AddGoal appends g.
func (s *Study) AddGoal(g Goal) {
	s.Goals = append(s.Goals, g)
}

// Lookup returns the goal with the given name, or nil.
func (s *Study) Lookup(name string) *Goal {
	for i := range s.Goals {
		if s.Goals[i].Name == name {
			return &s.Goals[i]
		}
	}
	return nil
}

// GoalCount returns the number of goals of kind k.
func (s *Study) GoalCount(k GoalKind) int {
	n := 0
	for _, g := range s.Goals {
		if g.Kind == k {
			n++
		}
	}
	return n
}
