// Package config loads the HCL run file that names the study, the solver
// recording and the output directory, and supplies pipeline and strut
// defaults the study may override.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/logging"
	"github.com/chazu/topomesh/pkg/study"
)

var log = logging.Named("config")

// Backend names.
const (
	BackendNative = "native"
	BackendSdfx   = "sdfx"
)

// Render modes.
const (
	RenderIsosurface = "isosurface"
	RenderStruts     = "struts"
	RenderBoth       = "both"
)

// DefaultMaxTriangles is the isosurface size above which a frame is drawn as
// struts instead.
const DefaultMaxTriangles = 500_000

// Config is a resolved run configuration.
type Config struct {
	Study        string
	Recording    string
	Output       string
	Backend      string
	Render       string
	MaxTriangles int
	LogLevel     string
	LogFormat    string

	Pipeline study.PipelineSpec
	Struts   study.StrutSpec
}

// Default returns the configuration used when no run file is given.
func Default() *Config {
	return &Config{
		Output:       "out",
		Backend:      BackendNative,
		Render:       RenderIsosurface,
		MaxTriangles: DefaultMaxTriangles,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

type fileSchema struct {
	Study        *string         `hcl:"study"`
	Recording    *string         `hcl:"recording"`
	Output       *string         `hcl:"output"`
	Backend      *string         `hcl:"backend"`
	Render       *string         `hcl:"render"`
	MaxTriangles *int            `hcl:"max_triangles"`
	LogLevel     *string         `hcl:"log_level"`
	LogFormat    *string         `hcl:"log_format"`
	Pipeline     *pipelineSchema `hcl:"pipeline,block"`
	Struts       *strutsSchema   `hcl:"struts,block"`
}

type pipelineSchema struct {
	Isovalue   *float64          `hcl:"isovalue"`
	Refine     *int              `hcl:"refine"`
	Cubic      *bool             `hcl:"cubic"`
	Filter     *filterSchema     `hcl:"filter,block"`
	Projection *projectionSchema `hcl:"projection,block"`
	Smoothing  *smoothingSchema  `hcl:"smoothing,block"`
}

type filterSchema struct {
	Radius   *float64 `hcl:"radius"`
	MaxNodes *int     `hcl:"max_nodes"`
}

type projectionSchema struct {
	Eta       *float64 `hcl:"eta"`
	BetaStart *float64 `hcl:"beta_start"`
	BetaEnd   *float64 `hcl:"beta_end"`
	RampIters *int     `hcl:"ramp_iters"`
}

type smoothingSchema struct {
	Iterations *int     `hcl:"iterations"`
	Lambda     *float64 `hcl:"lambda"`
	Mu         *float64 `hcl:"mu"`
}

type strutsSchema struct {
	Threshold *float64 `hcl:"threshold"`
	MaxPoints *int     `hcl:"max_points"`
	MaxSpan   *float64 `hcl:"max_span"`
	MaxDegree *int     `hcl:"max_degree"`
	Radius    *float64 `hcl:"radius"`
	Style     *string  `hcl:"style"`
}

// Load parses the run file at path. Relative study, recording and output
// paths are resolved against the directory of the file.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Errorf("config: failed to parse %s: %s", path, diags.Error())
	}

	var raw fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.Errorf("config: failed to decode %s: %s", path, diags.Error())
	}

	cfg := Default()
	raw.apply(cfg)

	dir := filepath.Dir(path)
	cfg.Study = resolve(dir, cfg.Study)
	cfg.Recording = resolve(dir, cfg.Recording)
	cfg.Output = resolve(dir, cfg.Output)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	log.Debugf("loaded %s: backend=%s render=%s", path, cfg.Backend, cfg.Render)
	return cfg, nil
}

func (f *fileSchema) apply(cfg *Config) {
	setString(&cfg.Study, f.Study)
	setString(&cfg.Recording, f.Recording)
	setString(&cfg.Output, f.Output)
	setString(&cfg.Backend, f.Backend)
	setString(&cfg.Render, f.Render)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogFormat, f.LogFormat)
	if f.MaxTriangles != nil {
		cfg.MaxTriangles = *f.MaxTriangles
	}

	if p := f.Pipeline; p != nil {
		cfg.Pipeline.Isovalue = p.Isovalue
		cfg.Pipeline.Refine = p.Refine
		cfg.Pipeline.Cubic = p.Cubic
		if p.Filter != nil {
			cfg.Pipeline.FilterRadius = p.Filter.Radius
			cfg.Pipeline.FilterMaxNodes = p.Filter.MaxNodes
		}
		if p.Projection != nil {
			cfg.Pipeline.Eta = p.Projection.Eta
			cfg.Pipeline.BetaStart = p.Projection.BetaStart
			cfg.Pipeline.BetaEnd = p.Projection.BetaEnd
			cfg.Pipeline.RampIters = p.Projection.RampIters
		}
		if p.Smoothing != nil {
			cfg.Pipeline.SmoothIterations = p.Smoothing.Iterations
			cfg.Pipeline.Lambda = p.Smoothing.Lambda
			cfg.Pipeline.Mu = p.Smoothing.Mu
		}
	}

	if s := f.Struts; s != nil {
		cfg.Struts = study.StrutSpec{
			Threshold: s.Threshold,
			MaxPoints: s.MaxPoints,
			MaxSpan:   s.MaxSpan,
			MaxDegree: s.MaxDegree,
			Radius:    s.Radius,
			Style:     s.Style,
		}
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendSdfx:
	default:
		return fmt.Errorf("invalid backend %q: must be %q or %q", c.Backend, BackendNative, BackendSdfx)
	}
	switch c.Render {
	case RenderIsosurface, RenderStruts, RenderBoth:
	default:
		return fmt.Errorf("invalid render %q: must be %q, %q or %q", c.Render, RenderIsosurface, RenderStruts, RenderBoth)
	}
	if c.MaxTriangles < 0 {
		return fmt.Errorf("invalid max_triangles %d: must not be negative", c.MaxTriangles)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
