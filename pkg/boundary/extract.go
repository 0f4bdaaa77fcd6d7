package boundary

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/logging"
	"github.com/chazu/topomesh/pkg/study"
)

var log = logging.Named("boundary")

// Anchor is a fixed support.
type Anchor struct {
	Position      v3.Vec  `json:"position"`
	Fixed         [3]bool `json:"fixed"`
	VertexIndices []int   `json:"vertexIndices,omitempty"`
	Goal          string  `json:"goal,omitempty"`
}

// Load is an applied force. Distributed is set when a goal's force was split
// across several points.
type Load struct {
	Position      v3.Vec `json:"position"`
	Force         v3.Vec `json:"force"`
	Distributed   bool   `json:"distributed"`
	VertexIndices []int  `json:"vertexIndices,omitempty"`
	Goal          string `json:"goal,omitempty"`
}

// Markers is the boundary-condition set handed to the solver.
type Markers struct {
	Anchors []Anchor `json:"anchors"`
	Loads   []Load   `json:"loads"`
}

// Extract builds the markers for goals on mesh. Goals without a vertex
// selection are satisfied by a default marker only when no goal of the same
// kind produced markers from a selection: anchors default to the minimum
// corner of the mesh bounds, loads to the maximum corner with the first load
// goal's force. Coincident markers are merged and an anchor sharing its
// position with a load is dropped. Neither input is modified.
func Extract(mesh *kernel.Mesh, goals []study.Goal) Markers {
	var m Markers
	var implicitAnchor, implicitLoad *study.Goal
	explicitAnchor, explicitLoad := false, false

	for i := range goals {
		g := &goals[i]
		switch g.Kind {
		case study.GoalAnchor:
			if !g.HasSelection() {
				if implicitAnchor == nil {
					implicitAnchor = g
				}
				continue
			}
			anchors := anchorsFor(mesh, *g)
			explicitAnchor = explicitAnchor || len(anchors) > 0
			m.Anchors = append(m.Anchors, anchors...)
		case study.GoalLoad:
			if !g.HasSelection() {
				if implicitLoad == nil {
					implicitLoad = g
				}
				continue
			}
			loads := loadsFor(mesh, *g)
			explicitLoad = explicitLoad || len(loads) > 0
			m.Loads = append(m.Loads, loads...)
		}
	}

	needAnchor := implicitAnchor != nil && !explicitAnchor
	needLoad := implicitLoad != nil && !explicitLoad
	if needAnchor || needLoad {
		if mesh == nil || mesh.IsEmpty() {
			log.Warn("mesh has no vertices; default markers skipped")
		} else {
			min, max := mesh.Bounds()
			if needAnchor {
				m.Anchors = append(m.Anchors, Anchor{Position: min, Fixed: [3]bool{true, true, true}, Goal: implicitAnchor.Name})
				log.Debugf("default anchor at %v", min)
			}
			if needLoad {
				m.Loads = append(m.Loads, Load{Position: max, Force: study.GoalForce(*implicitLoad), Goal: implicitLoad.Name})
				log.Debugf("default load at %v", max)
			}
		}
	}

	m = dedupe(m)
	log.Debugf("extracted %d anchors, %d loads from %d goals", len(m.Anchors), len(m.Loads), len(goals))
	return m
}

func anchorsFor(mesh *kernel.Mesh, g study.Goal) []Anchor {
	region := AnalyzeRegion(mesh, g.Elements)
	warnInvalid(g, region)
	fixed := study.GoalFixed(g)

	if g.Placement == study.PlaceCentroid && region.Valid {
		return []Anchor{{
			Position:      region.AreaCentroid,
			Fixed:         fixed,
			VertexIndices: resolvedIndices(mesh, g.Elements),
			Goal:          g.Name,
		}}
	}

	var out []Anchor
	for _, idx := range resolvedIndices(mesh, g.Elements) {
		out = append(out, Anchor{Position: mesh.Position(idx), Fixed: fixed, VertexIndices: []int{idx}, Goal: g.Name})
	}
	return out
}

func loadsFor(mesh *kernel.Mesh, g study.Goal) []Load {
	region := AnalyzeRegion(mesh, g.Elements)
	warnInvalid(g, region)
	force := study.GoalForce(g)

	indices := resolvedIndices(mesh, g.Elements)
	if g.Placement == study.PlaceCentroid && region.Valid {
		return []Load{{
			Position:      region.AreaCentroid,
			Force:         force,
			VertexIndices: indices,
			Goal:          g.Name,
		}}
	}

	if len(indices) == 0 {
		return nil
	}
	share := force.DivScalar(float64(len(indices)))
	distributed := len(indices) > 1
	out := make([]Load, 0, len(indices))
	for _, idx := range indices {
		out = append(out, Load{
			Position:      mesh.Position(idx),
			Force:         share,
			Distributed:   distributed,
			VertexIndices: []int{idx},
			Goal:          g.Name,
		})
	}
	return out
}

func resolvedIndices(mesh *kernel.Mesh, indices []int) []int {
	count := 0
	if mesh != nil {
		count = mesh.VertexCount()
	}
	return lo.Filter(indices, func(idx int, _ int) bool {
		return idx >= 0 && idx < count
	})
}

func warnInvalid(g study.Goal, region RegionMetadata) {
	if region.Valid {
		return
	}
	log.WithField("goal", g.Name).Warnf("%s region invalid: %v", g.Kind, region.Errors)
}

// positionKey identifies a position to 6 decimal places.
type positionKey struct {
	x, y, z int64
}

func keyOf(p v3.Vec) positionKey {
	return positionKey{x: round6(p.X), y: round6(p.Y), z: round6(p.Z)}
}

func round6(f float64) int64 {
	return int64(math.Round(f * 1e6))
}

// dedupe merges coincident markers: the first anchor at a position wins,
// loads at a shared position sum their forces. Anchors at a load position
// are dropped.
func dedupe(m Markers) Markers {
	out := Markers{Anchors: []Anchor{}, Loads: []Load{}}

	seenAnchor := make(map[positionKey]bool)
	for _, a := range m.Anchors {
		k := keyOf(a.Position)
		if seenAnchor[k] {
			continue
		}
		seenAnchor[k] = true
		out.Anchors = append(out.Anchors, a)
	}

	loadAt := make(map[positionKey]int)
	for _, l := range m.Loads {
		k := keyOf(l.Position)
		if i, ok := loadAt[k]; ok {
			merged := &out.Loads[i]
			merged.Force = merged.Force.Add(l.Force)
			merged.Distributed = merged.Distributed || l.Distributed
			merged.VertexIndices = lo.Uniq(append(merged.VertexIndices, l.VertexIndices...))
			continue
		}
		loadAt[k] = len(out.Loads)
		l.VertexIndices = append([]int(nil), l.VertexIndices...)
		out.Loads = append(out.Loads, l)
	}

	before := len(out.Anchors)
	out.Anchors = lo.Filter(out.Anchors, func(a Anchor, _ int) bool {
		_, loaded := loadAt[keyOf(a.Position)]
		return !loaded
	})
	if dropped := before - len(out.Anchors); dropped > 0 {
		log.Warnf("dropped %d anchors that coincide with loads", dropped)
	}
	return out
}
