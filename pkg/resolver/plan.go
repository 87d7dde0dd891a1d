package resolver

// Plan is the expanded output handed to the code emitter
type Plan struct {
	Era      string    `json:"era" yaml:"era"`
	Sample   string    `json:"sample" yaml:"sample"`
	Variants []Variant `json:"variants" yaml:"variants"`
}

// Variant is one resolved (scope, shift) graph
type Variant struct {
	Scope string `json:"scope" yaml:"scope"`
	Shift string `json:"shift" yaml:"shift"`
	// ExecutionID identifies the structure of the variant; equal IDs mean identical work
	ExecutionID string `json:"execution_id" yaml:"execution_id"`
	// AliasOf names the shift whose execution this variant reuses. Aliased variants carry no steps.
	AliasOf string `json:"alias_of,omitempty" yaml:"alias_of,omitempty"`
	// Excluded is set when the shift is disabled for the sample and the variant runs the nominal graph
	Excluded bool   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Steps    []Step `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Step is one producer invocation in execution order
type Step struct {
	Producer   string         `json:"producer" yaml:"producer"`
	Name       string         `json:"name" yaml:"name"`
	Call       string         `json:"call" yaml:"call"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Inputs     []string       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    []string       `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Lookup returns the variant for scope and shift
func (p *Plan) Lookup(scope, shift string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Scope == scope && v.Shift == shift {
			return v, true
		}
	}

	return Variant{}, false
}

// Executions returns the variants that are not aliases
func (p *Plan) Executions() []Variant {
	out := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.AliasOf == "" {
			out = append(out, v)
		}
	}

	return out
}

func (s Step) clone() Step {
	out := s
	out.Inputs = append([]string(nil), s.Inputs...)
	out.Outputs = append([]string(nil), s.Outputs...)

	if s.Parameters != nil {
		out.Parameters = make(map[string]any, len(s.Parameters))
		for k, v := range s.Parameters {
			out.Parameters[k] = v
		}
	}

	return out
}
