package study

// PipelineSpec holds the isosurface settings of a study. Nil fields are
// unset and fall through to the next layer of defaults.
type PipelineSpec struct {
	Isovalue         *float64 `json:"isovalue,omitempty"`
	FilterRadius     *float64 `json:"filterRadius,omitempty"`
	FilterMaxNodes   *int     `json:"filterMaxNodes,omitempty"`
	Eta              *float64 `json:"eta,omitempty"`
	BetaStart        *float64 `json:"betaStart,omitempty"`
	BetaEnd          *float64 `json:"betaEnd,omitempty"`
	RampIters        *int     `json:"rampIters,omitempty"`
	Refine           *int     `json:"refine,omitempty"`
	SmoothIterations *int     `json:"smoothIterations,omitempty"`
	Lambda           *float64 `json:"lambda,omitempty"`
	Mu               *float64 `json:"mu,omitempty"`
	Cubic            *bool    `json:"cubic,omitempty"`
}

// Merge returns p with every field set in over replacing its own.
func (p PipelineSpec) Merge(over *PipelineSpec) PipelineSpec {
	if over == nil {
		return p
	}
	p.Isovalue = pickFloat(p.Isovalue, over.Isovalue)
	p.FilterRadius = pickFloat(p.FilterRadius, over.FilterRadius)
	p.FilterMaxNodes = pickInt(p.FilterMaxNodes, over.FilterMaxNodes)
	p.Eta = pickFloat(p.Eta, over.Eta)
	p.BetaStart = pickFloat(p.BetaStart, over.BetaStart)
	p.BetaEnd = pickFloat(p.BetaEnd, over.BetaEnd)
	p.RampIters = pickInt(p.RampIters, over.RampIters)
	p.Refine = pickInt(p.Refine, over.Refine)
	p.SmoothIterations = pickInt(p.SmoothIterations, over.SmoothIterations)
	p.Lambda = pickFloat(p.Lambda, over.Lambda)
	p.Mu = pickFloat(p.Mu, over.Mu)
	if over.Cubic != nil {
		p.Cubic = over.Cubic
	}
	return p
}

// StrutSpec holds the strut-network settings of a study.
type StrutSpec struct {
	Threshold *float64 `json:"threshold,omitempty"`
	MaxPoints *int     `json:"maxPoints,omitempty"`
	MaxSpan   *float64 `json:"maxSpan,omitempty"`
	MaxDegree *int     `json:"maxDegree,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	Style     *string  `json:"style,omitempty"`
}

// Merge returns s with every field set in over replacing its own.
func (s StrutSpec) Merge(over *StrutSpec) StrutSpec {
	if over == nil {
		return s
	}
	s.Threshold = pickFloat(s.Threshold, over.Threshold)
	s.MaxPoints = pickInt(s.MaxPoints, over.MaxPoints)
	s.MaxSpan = pickFloat(s.MaxSpan, over.MaxSpan)
	s.MaxDegree = pickInt(s.MaxDegree, over.MaxDegree)
	s.Radius = pickFloat(s.Radius, over.Radius)
	if over.Style != nil {
		s.Style = over.Style
	}
	return s
}

func pickFloat(base, over *float64) *float64 {
	if over != nil {
		return over
	}
	return base
}

func pickInt(base, over *int) *int {
	if over != nil {
		return over
	}
	return base
}
