package study

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks the run
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the run
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Goal     string             // which goal has the problem (empty if study-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Goal == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] goal %s: %s", e.Severity, e.Goal, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Goal    string
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on the study and returns every
// finding. It never mutates the study.
func Validate(s *Study) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateParams(s)...)
	errs = append(errs, validateElements(s)...)
	errs = append(errs, validatePresence(s)...)
	return errs
}

// ValidateAll runs all tiers (structural, selection against a mesh of
// vertexCount vertices, reconstruction settings) and separates errors from
// warnings. A negative vertexCount skips the selection tier.
func ValidateAll(s *Study, vertexCount int) ValidationResult {
	var result ValidationResult
	findings := Validate(s)
	if vertexCount >= 0 {
		findings = append(findings, validateSelection(s, vertexCount)...)
	}
	if s.Pipeline != nil {
		findings = append(findings, validatePipeline(*s.Pipeline)...)
	}
	if s.Struts != nil {
		findings = append(findings, validateStruts(*s.Struts)...)
	}

	for _, f := range findings {
		if f.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{Goal: f.Goal, Message: f.Message})
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
	return result
}

// validateNames rejects duplicate goal names.
func validateNames(s *Study) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, g := range s.Goals {
		if g.Name == "" {
			continue
		}
		if seen[g.Name] {
			errs = append(errs, ValidationError{
				Goal:     g.Name,
				Message:  "duplicate goal name",
				Severity: SeverityError,
			})
		}
		seen[g.Name] = true
	}
	return errs
}

// validateParams checks that each goal's parameters match its kind.
func validateParams(s *Study) []ValidationError {
	var errs []ValidationError
	for _, g := range s.Goals {
		switch p := g.Params.(type) {
		case nil:
		case AnchorParams:
			if g.Kind != GoalAnchor {
				errs = append(errs, ValidationError{Goal: g.Name, Message: fmt.Sprintf("%s goal has anchor parameters", g.Kind), Severity: SeverityError})
				continue
			}
			if fixed := p.ResolveFixed(); !fixed[0] && !fixed[1] && !fixed[2] {
				errs = append(errs, ValidationError{Goal: g.Name, Message: "anchor fixes no axis", Severity: SeverityWarning})
			}
		case LoadParams:
			if g.Kind != GoalLoad {
				errs = append(errs, ValidationError{Goal: g.Name, Message: fmt.Sprintf("%s goal has load parameters", g.Kind), Severity: SeverityError})
				continue
			}
			if f := ResolveForce(p); f.X == 0 && f.Y == 0 && f.Z == 0 {
				errs = append(errs, ValidationError{Goal: g.Name, Message: "load force is zero", Severity: SeverityWarning})
			}
		}
	}
	return errs
}

// validateElements rejects negative vertex indices.
func validateElements(s *Study) []ValidationError {
	var errs []ValidationError
	for _, g := range s.Goals {
		for _, e := range g.Elements {
			if e < 0 {
				errs = append(errs, ValidationError{
					Goal:     g.Name,
					Message:  fmt.Sprintf("vertex index %d is negative", e),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validatePresence warns when a study lacks supports or loads; defaults will
// not be placed for a kind that has no goal at all.
func validatePresence(s *Study) []ValidationError {
	var errs []ValidationError
	if s.GoalCount(GoalAnchor) == 0 {
		errs = append(errs, ValidationError{Message: "study has no anchor goal", Severity: SeverityWarning})
	}
	if s.GoalCount(GoalLoad) == 0 {
		errs = append(errs, ValidationError{Message: "study has no load goal", Severity: SeverityWarning})
	}
	return errs
}

// validateSelection warns about indices past the end of the mesh; the
// extractor skips them.
func validateSelection(s *Study, vertexCount int) []ValidationError {
	var errs []ValidationError
	for _, g := range s.Goals {
		bad := 0
		for _, e := range g.Elements {
			if e >= vertexCount {
				bad++
			}
		}
		if bad > 0 {
			errs = append(errs, ValidationError{
				Goal:     g.Name,
				Message:  fmt.Sprintf("%d of %d selected vertices are out of range (mesh has %d)", bad, len(g.Elements), vertexCount),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validatePipeline(p PipelineSpec) []ValidationError {
	var errs []ValidationError
	warn := func(format string, args ...interface{}) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
	}
	fail := func(format string, args ...interface{}) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}

	if p.Isovalue != nil && (*p.Isovalue < 0 || *p.Isovalue > 1) {
		warn("isovalue %.3f outside [0,1] will be clamped", *p.Isovalue)
	}
	if p.Eta != nil && (*p.Eta < 0 || *p.Eta > 1) {
		fail("projection threshold eta %.3f outside [0,1]", *p.Eta)
	}
	if p.BetaStart != nil && p.BetaEnd != nil && *p.BetaStart > *p.BetaEnd {
		warn("beta ramps down from %.3f to %.3f", *p.BetaStart, *p.BetaEnd)
	}
	if p.RampIters != nil && *p.RampIters < 0 {
		fail("ramp iterations %d is negative", *p.RampIters)
	}
	if p.Refine != nil && *p.Refine < 1 {
		warn("refinement factor %d disables refinement", *p.Refine)
	}
	if p.FilterRadius != nil && *p.FilterRadius < 0 {
		warn("filter radius %.3f disables the filter", *p.FilterRadius)
	}
	if p.SmoothIterations != nil && *p.SmoothIterations > 200 {
		warn("smoothing iterations %d will be clamped to 200", *p.SmoothIterations)
	}
	if p.Mu != nil && *p.Mu >= 0 {
		warn("mu %.3f does not counter shrinkage", *p.Mu)
	}
	return errs
}

func validateStruts(s StrutSpec) []ValidationError {
	var errs []ValidationError
	if s.Threshold != nil && (*s.Threshold < 0 || *s.Threshold > 1) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("strut threshold %.3f outside [0,1]", *s.Threshold), Severity: SeverityWarning})
	}
	if s.MaxPoints != nil && *s.MaxPoints <= 0 {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("strut point budget %d must be positive", *s.MaxPoints), Severity: SeverityError})
	}
	if s.MaxDegree != nil && *s.MaxDegree <= 0 {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("strut degree cap %d must be positive", *s.MaxDegree), Severity: SeverityError})
	}
	if s.Style != nil && *s.Style != "curves" && *s.Style != "multipipe" {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("unknown strut style %q, expected curves or multipipe", *s.Style), Severity: SeverityError})
	}
	return errs
}
