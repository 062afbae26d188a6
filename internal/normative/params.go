package normative

import (
	"fmt"

	"github.com/yalicar/string-compliance-iq/internal/faults"
)

// Standard identifies a recognized normative standard.
type Standard string

const (
	StandardIEC    Standard = "IEC"
	StandardNEC    Standard = "NEC"
	StandardCustom Standard = "CUSTOM"
)

// ParseStandard validates a caller-supplied standard name.
func ParseStandard(name string) (Standard, error) {
	switch Standard(name) {
	case StandardIEC, StandardNEC, StandardCustom:
		return Standard(name), nil
	default:
		return "", faults.Validation("base_norm", "unrecognized standard %q (expected IEC, NEC or CUSTOM)", name)
	}
}

// Stages lists the calculation stages a project override can target, in
// electrical order from the strings up to medium voltage.
var Stages = []string{"dc_strings", "cn1_inverter", "level_1_dc", "ac_circuits", "mv_circuits"}

// KnownStage reports whether name is one of the defined calculation stages.
func KnownStage(name string) bool {
	for _, s := range Stages {
		if s == name {
			return true
		}
	}
	return false
}

// Parameter describes one editable normative parameter with the metadata the
// parameter editor needs: current value, display label, structural type and
// the accepted range or option list.
type Parameter struct {
	Value       any       `yaml:"value" json:"value"`
	Label       string    `yaml:"label" json:"label"`
	Description string    `yaml:"description" json:"description"`
	Type        string    `yaml:"type" json:"type"` // number, integer, select, boolean
	Unit        string    `yaml:"unit,omitempty" json:"unit,omitempty"`
	Range       []float64 `yaml:"range,omitempty" json:"range,omitempty"` // [min, max]
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
}

// Section groups related parameters (correction factors, cable properties,
// voltage-drop limit, temperature correction, installation method).
type Section struct {
	Title      string               `yaml:"title" json:"title"`
	Parameters map[string]Parameter `yaml:"parameters" json:"parameters"`
}

// ParameterSet is the full structured parameter set for one standard, either
// base (straight from the catalog) or effective (base merged with a project
// override).
type ParameterSet struct {
	Standard    Standard           `json:"standard"`
	DisplayName string             `json:"display_name"`
	Description string             `json:"description"`
	Country     string             `json:"country"`
	Sections    map[string]Section `json:"sections"`
}

// Lookup returns the parameter at a dotted "section.parameter" path.
func (ps ParameterSet) Lookup(path string) (Parameter, bool) {
	section, param, ok := splitPath(path)
	if !ok {
		return Parameter{}, false
	}
	sec, ok := ps.Sections[section]
	if !ok {
		return Parameter{}, false
	}
	p, ok := sec.Parameters[param]
	return p, ok
}

// clone deep-copies the parameter set so override application never touches
// the catalog's base copy.
func (ps ParameterSet) clone() ParameterSet {
	out := ps
	out.Sections = make(map[string]Section, len(ps.Sections))
	for name, sec := range ps.Sections {
		params := make(map[string]Parameter, len(sec.Parameters))
		for pname, p := range sec.Parameters {
			cp := p
			cp.Range = append([]float64(nil), p.Range...)
			cp.Options = append([]string(nil), p.Options...)
			params[pname] = cp
		}
		out.Sections[name] = Section{Title: sec.Title, Parameters: params}
	}
	return out
}

func splitPath(path string) (section, param string, ok bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			if i == 0 || i == len(path)-1 {
				return "", "", false
			}
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}

// Resolve merges a base parameter set with project override values keyed by
// dotted "section.parameter" paths. The base set is never mutated. Unknown
// paths are rejected; callers validate overrides before persisting, so a
// failure here indicates a stored override that drifted from the catalog.
func Resolve(base ParameterSet, overrides map[string]any) (ParameterSet, error) {
	resolved := base.clone()
	for path, value := range overrides {
		section, param, ok := splitPath(path)
		if !ok {
			return ParameterSet{}, fmt.Errorf("malformed override path %q", path)
		}
		sec, ok := resolved.Sections[section]
		if !ok {
			return ParameterSet{}, fmt.Errorf("override targets unknown section %q", section)
		}
		p, ok := sec.Parameters[param]
		if !ok {
			return ParameterSet{}, fmt.Errorf("override targets unknown parameter %q", path)
		}
		p.Value = value
		sec.Parameters[param] = p
	}
	return resolved, nil
}
