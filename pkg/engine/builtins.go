package engine

import (
	"fmt"
	"sort"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/topomesh/pkg/study"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites study source before it reaches zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords need no global symbols.
//
//  2. Kebab-case to underscore: beta-start -> beta_start outside keywords,
//     since zygomys reads a hyphen as the subtraction operator.
//
//  3. Line comments: ; and ;; become //.
//
// String literals are copied unchanged.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			i = copyQuoted(&result, b, i, '"', true)
			continue
		case b[i] == '`':
			i = copyQuoted(&result, b, i, '`', false)
			continue
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// A hyphen between identifier characters, not a minus operator.
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// copyQuoted copies the literal starting at b[i] through its closing quote
// and returns the index after it.
func copyQuoted(result *[]byte, b []byte, i int, quote byte, escapes bool) int {
	*result = append(*result, b[i])
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			*result = append(*result, b[i], b[i+1])
			i += 2
			continue
		}
		*result = append(*result, b[i])
		i++
	}
	if i < len(b) {
		*result = append(*result, b[i])
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGoalRef names a goal added to the study.
type sexpGoalRef struct {
	kind study.GoalKind
	name string
}

func (g *sexpGoalRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", g.kind, g.name)
}
func (g *sexpGoalRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// only rejects keywords outside allowed.
func (a kwArgs) only(form string, allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	var unknown []string
	for k := range a.kw {
		if !ok[k] {
			unknown = append(unknown, ":"+k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%s: unknown keyword %s", form, strings.Join(unknown, ", "))
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toFixed parses an axis mask such as "xz", "xyz" or "none".
func toFixed(s zygo.Sexp) ([3]bool, error) {
	var mask [3]bool
	name, err := toKeywordString(s)
	if err != nil {
		return mask, err
	}
	if name == "none" {
		return mask, nil
	}
	if name == "" || name == "all" {
		return [3]bool{true, true, true}, nil
	}
	for _, c := range name {
		switch c {
		case 'x':
			mask[0] = true
		case 'y':
			mask[1] = true
		case 'z':
			mask[2] = true
		default:
			return mask, fmt.Errorf("invalid axis %q in %q, expected x, y or z", c, name)
		}
	}
	return mask, nil
}

// toIndices extracts vertex indices from a list or array of integers.
func toIndices(s zygo.Sexp) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// floatOpt and intOpt read an optional keyword into a pointer field.
func floatOpt(form string, pa kwArgs, key string, dst **float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", form, key, err)
	}
	*dst = &f
	return nil
}

func intOpt(form string, pa kwArgs, key string, dst **int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", form, key, err)
	}
	*dst = &n
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the study DSL builtins into a zygomys
// environment. The builtins populate s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *study.Study) {

	// -----------------------------------------------------------------------
	// (study "bracket")
	// -----------------------------------------------------------------------
	env.AddFunction("study", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("study requires exactly one name argument")
		}
		n, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("study: name: %w", err)
		}
		s.Name = n
		return &zygo.SexpStr{S: n}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (anchor "wall" :vertices [0 1 2] :fix :xz :placement :centroid)
	// -----------------------------------------------------------------------
	env.AddFunction("anchor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("anchor", "name", "vertices", "fix", "placement"); err != nil {
			return zygo.SexpNull, err
		}
		g, err := goalBase(s, study.GoalAnchor, pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		params := study.AnchorParams{}
		if v, ok := pa.kw["fix"]; ok {
			mask, err := toFixed(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("anchor: fix: %w", err)
			}
			params.Fixed = &mask
		}
		g.Params = params

		s.AddGoal(g)
		return &sexpGoalRef{kind: g.Kind, name: g.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (load "tip" :vertices [5] :force (vec3 0 -100 0))
	// (load "tip" :vertices [5] :force-y -100)
	// (load "tip" :vertices [5] :fy -100 :placement :centroid)
	// -----------------------------------------------------------------------
	env.AddFunction("load", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("load", "name", "vertices", "placement", "force",
			"force-x", "force-y", "force-z", "fx", "fy", "fz"); err != nil {
			return zygo.SexpNull, err
		}
		g, err := goalBase(s, study.GoalLoad, pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		params := study.LoadParams{}
		if v, ok := pa.kw["force"]; ok {
			f, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("load: force: %w", err)
			}
			params.Force = &f
		}
		scalars := []struct {
			key string
			dst **float64
		}{
			{"force-x", &params.ForceX}, {"force-y", &params.ForceY}, {"force-z", &params.ForceZ},
			{"fx", &params.FX}, {"fy", &params.FY}, {"fz", &params.FZ},
		}
		for _, sc := range scalars {
			if err := floatOpt("load", pa, sc.key, sc.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		g.Params = params

		s.AddGoal(g)
		return &sexpGoalRef{kind: g.Kind, name: g.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (pipeline :isovalue 0.5 :filter-radius 1.5 :beta-start 1 :beta-end 8
	//           :ramp-iters 40 :refine 2 :smooth 5 :cubic true)
	// -----------------------------------------------------------------------
	env.AddFunction("pipeline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("pipeline", "isovalue", "filter-radius", "filter-max-nodes", "eta",
			"beta-start", "beta-end", "ramp-iters", "refine", "smooth", "lambda", "mu", "cubic"); err != nil {
			return zygo.SexpNull, err
		}

		var p study.PipelineSpec
		floats := []struct {
			key string
			dst **float64
		}{
			{"isovalue", &p.Isovalue}, {"filter-radius", &p.FilterRadius}, {"eta", &p.Eta},
			{"beta-start", &p.BetaStart}, {"beta-end", &p.BetaEnd},
			{"lambda", &p.Lambda}, {"mu", &p.Mu},
		}
		for _, f := range floats {
			if err := floatOpt("pipeline", pa, f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		ints := []struct {
			key string
			dst **int
		}{
			{"filter-max-nodes", &p.FilterMaxNodes}, {"ramp-iters", &p.RampIters},
			{"refine", &p.Refine}, {"smooth", &p.SmoothIterations},
		}
		for _, n := range ints {
			if err := intOpt("pipeline", pa, n.key, n.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["cubic"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pipeline: cubic: %w", err)
			}
			p.Cubic = &b
		}

		var base study.PipelineSpec
		if s.Pipeline != nil {
			base = *s.Pipeline
		}
		merged := base.Merge(&p)
		s.Pipeline = &merged
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (struts :threshold 0.3 :max-points 2000 :max-degree 4 :style :multipipe)
	// -----------------------------------------------------------------------
	env.AddFunction("struts", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("struts", "threshold", "max-points", "max-span", "max-degree", "radius", "style"); err != nil {
			return zygo.SexpNull, err
		}

		var sp study.StrutSpec
		for _, f := range []struct {
			key string
			dst **float64
		}{
			{"threshold", &sp.Threshold}, {"max-span", &sp.MaxSpan}, {"radius", &sp.Radius},
		} {
			if err := floatOpt("struts", pa, f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		for _, n := range []struct {
			key string
			dst **int
		}{
			{"max-points", &sp.MaxPoints}, {"max-degree", &sp.MaxDegree},
		} {
			if err := intOpt("struts", pa, n.key, n.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["style"]; ok {
			style, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("struts: style: %w", err)
			}
			sp.Style = &style
		}

		var base study.StrutSpec
		if s.Struts != nil {
			base = *s.Struts
		}
		merged := base.Merge(&sp)
		s.Struts = &merged
		return zygo.SexpNull, nil
	})
}

// goalBase reads the name, vertex selection and placement shared by anchor
// and load forms. The name is the first positional string or :name; an
// unnamed goal is numbered by kind.
func goalBase(s *study.Study, kind study.GoalKind, pa kwArgs) (study.Goal, error) {
	form := kind.String()
	g := study.Goal{Kind: kind}

	switch {
	case pa.kw["name"] != nil:
		n, err := toString(pa.kw["name"])
		if err != nil {
			return g, fmt.Errorf("%s: name: %w", form, err)
		}
		g.Name = n
	case len(pa.positional) > 0:
		n, err := toString(pa.positional[0])
		if err != nil {
			return g, fmt.Errorf("%s: name: %w", form, err)
		}
		g.Name = n
	default:
		g.Name = fmt.Sprintf("%s-%d", form, s.GoalCount(kind)+1)
	}

	if v, ok := pa.kw["vertices"]; ok {
		idx, err := toIndices(v)
		if err != nil {
			return g, fmt.Errorf("%s: vertices: %w", form, err)
		}
		g.Elements = idx
	}

	if v, ok := pa.kw["placement"]; ok {
		name, err := toKeywordString(v)
		if err != nil {
			return g, fmt.Errorf("%s: placement: %w", form, err)
		}
		p, err := study.ParsePlacement(name)
		if err != nil {
			return g, fmt.Errorf("%s: placement: %w", form, err)
		}
		g.Placement = p
	}
	return g, nil
}
