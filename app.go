package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/topomesh/pkg/boundary"
	"github.com/chazu/topomesh/pkg/config"
	"github.com/chazu/topomesh/pkg/engine"
	"github.com/chazu/topomesh/pkg/kernel"
	"github.com/chazu/topomesh/pkg/kernel/sdfx"
	"github.com/chazu/topomesh/pkg/logging"
	"github.com/chazu/topomesh/pkg/solver"
	"github.com/chazu/topomesh/pkg/strut"
	"github.com/chazu/topomesh/pkg/study"
	"github.com/chazu/topomesh/pkg/tessellate"
)

var log = logging.Named("app")

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App binds the study engine, the boundary extractor and the frame pipeline
// for one run configuration.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	kernel kernel.Kernel // nil selects native marching cubes
}

// MeshData is the JSON-serializable mesh format handed to renderers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Colors   []float32 `json:"colors"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Goal    string `json:"goal,omitempty"`
}

// EvalResult is the outcome of evaluating a study against the design mesh.
type EvalResult struct {
	Study    *study.Study     `json:"-"`
	Markers  boundary.Markers `json:"markers"`
	Errors   []EvalErrorData  `json:"errors"`
	Warnings []EvalErrorData  `json:"warnings"`
}

// FrameResult is the rendered form of one solver frame.
type FrameResult struct {
	Iter       int           `json:"iter"`
	Compliance float64       `json:"compliance"`
	Change     float64       `json:"change"`
	Volume     float64       `json:"volume"`
	Isovalue   float64       `json:"isovalue"`
	Beta       float64       `json:"beta"`
	Meshes     []MeshData    `json:"meshes"`
	Struts     *strut.Counts `json:"struts,omitempty"`
	Fallback   bool          `json:"fallback"`
	Warnings   []string      `json:"warnings"`
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID  string      `json:"runId"`
	Frames int         `json:"frames"`
	Final  FrameResult `json:"final"`
}

// NewApp creates an App for cfg. A nil cfg uses config.Default.
func NewApp(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{cfg: cfg, engine: engine.NewEngine()}
	if cfg.Backend == config.BackendSdfx {
		a.kernel = sdfx.New()
	}
	return a
}

// Evaluate runs the study source, validates it against mesh and extracts the
// boundary markers. Markers are only produced when there are no errors.
func (a *App) Evaluate(source string, mesh *kernel.Mesh) EvalResult {
	result := EvalResult{
		Markers:  boundary.Markers{Anchors: []boundary.Anchor{}, Loads: []boundary.Load{}},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	vertexCount := -1
	if mesh != nil {
		vertexCount = mesh.VertexCount()
	}

	res, err := a.engine.Check(source, vertexCount)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Errorf("evaluate: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message, Goal: w.Goal})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	result.Study = res.Study
	if mesh != nil {
		result.Markers = boundary.Extract(mesh, res.Study.Goals)
	}
	log.Infof("study: %d goals, %d anchors, %d loads", len(res.Study.Goals), len(result.Markers.Anchors), len(result.Markers.Loads))
	return result
}

// ProcessFrame renders one solver frame with the run settings, overridden
// field by field by the study. An isosurface over the triangle ceiling is
// replaced by the strut network.
func (a *App) ProcessFrame(s *study.Study, f solver.Frame) (FrameResult, error) {
	result := FrameResult{
		Iter:       f.Iter,
		Compliance: f.Compliance,
		Change:     f.Change,
		Volume:     f.Volume,
		Meshes:     []MeshData{},
		Warnings:   []string{},
	}

	pipeline, struts := a.cfg.Pipeline, a.cfg.Struts
	if s != nil {
		pipeline = pipeline.Merge(s.Pipeline)
		struts = struts.Merge(s.Struts)
	}

	wantStruts := a.cfg.Render == config.RenderStruts || a.cfg.Render == config.RenderBoth
	if a.cfg.Render != config.RenderStruts {
		opts := tessellate.OptionsFrom(pipeline)
		opts.Kernel = a.kernel
		iso, err := tessellate.Isosurface(f.Field, f.Iter, opts)
		if err != nil {
			return result, err
		}
		result.Isovalue, result.Beta = iso.Isovalue, iso.Beta
		if iso.Degenerate {
			result.Warnings = append(result.Warnings, "isovalue outside the field range; surface is degenerate")
		}

		if limit := a.cfg.MaxTriangles; limit > 0 && iso.Mesh.TriangleCount() > limit {
			log.Warnf("frame %d: isosurface has %d triangles (limit %d); drawing struts", f.Iter, iso.Mesh.TriangleCount(), limit)
			result.Warnings = append(result.Warnings, "isosurface exceeds the triangle limit; showing the strut network")
			result.Fallback = true
			wantStruts = true
		} else {
			result.Meshes = append(result.Meshes, meshData(iso.Mesh, len(result.Meshes)))
		}
	}

	if wantStruts {
		opts, style, err := tessellate.StrutOptionsFrom(struts)
		if err != nil {
			return result, err
		}
		sr, err := tessellate.Struts(f.Field, opts, style)
		if err != nil {
			return result, err
		}
		counts := sr.Counts
		result.Struts = &counts
		result.Meshes = append(result.Meshes, meshData(sr.Mesh, len(result.Meshes)))
	}

	log.Debugf("frame %d: %d meshes, %d triangles", f.Iter, len(result.Meshes),
		lo.SumBy(result.Meshes, func(m MeshData) int { return len(m.Indices) / 3 }))
	return result, nil
}

// Run drives stepper to completion, rendering every frame and handing it to
// emit (which may be nil). Cancelling ctx stops the run between frames.
func (a *App) Run(ctx context.Context, s *study.Study, stepper solver.Stepper, emit func(FrameResult) error) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString()}
	runLog := log.WithField("run", summary.RunID)
	runLog.Info("run started")

	n, err := solver.Drive(ctx, stepper, func(f solver.Frame) error {
		fr, err := a.ProcessFrame(s, f)
		if err != nil {
			return err
		}
		summary.Final = fr
		if emit != nil {
			return emit(fr)
		}
		return nil
	})
	summary.Frames = n
	if err != nil {
		runLog.Warnf("run stopped after %d frames: %v", n, err)
		return summary, err
	}
	runLog.Infof("run finished: %d frames", n)
	return summary, nil
}

func meshData(m *kernel.Mesh, i int) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		UVs:      m.UVs,
		Colors:   m.Colors,
		Indices:  m.Indices,
		PartName: m.PartName,
		Color:    colorPalette[i%len(colorPalette)],
	}
}
