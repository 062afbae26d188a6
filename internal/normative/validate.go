package normative

import (
	"github.com/yalicar/string-compliance-iq/internal/faults"
)

// ValidateOverrides structurally checks caller-supplied override values
// against the base parameter set before any remote write. Malformed local
// edits are rejected here, without a round-trip: every path must name an
// existing parameter and every value must match the parameter's declared
// type, range and option list.
func ValidateOverrides(overrides map[string]any, base ParameterSet) error {
	if len(overrides) == 0 {
		return faults.Validation("params", "no parameter overrides supplied")
	}
	for path, value := range overrides {
		param, ok := base.Lookup(path)
		if !ok {
			return faults.Validation(path, "unknown parameter")
		}
		if err := validateValue(path, value, param); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, value any, param Parameter) error {
	switch param.Type {
	case "number":
		num, ok := toNumber(value)
		if !ok {
			return faults.Validation(path, "must be a number, got %T", value)
		}
		return checkRange(path, num, param)
	case "integer":
		num, ok := toNumber(value)
		if !ok {
			return faults.Validation(path, "must be a number, got %T", value)
		}
		if num != float64(int64(num)) {
			return faults.Validation(path, "must be a whole number, got %v", num)
		}
		return checkRange(path, num, param)
	case "select":
		str, ok := value.(string)
		if !ok {
			return faults.Validation(path, "must be a string option, got %T", value)
		}
		for _, opt := range param.Options {
			if opt == str {
				return nil
			}
		}
		return faults.Validation(path, "%q is not one of the allowed options %v", str, param.Options)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return faults.Validation(path, "must be a boolean, got %T", value)
		}
		return nil
	default:
		return faults.Validation(path, "parameter has unknown type %q", param.Type)
	}
}

func checkRange(path string, num float64, param Parameter) error {
	if len(param.Range) != 2 {
		return nil
	}
	if num < param.Range[0] || num > param.Range[1] {
		return faults.Validation(path, "must be between %v and %v, got %v", param.Range[0], param.Range[1], num)
	}
	return nil
}

// toNumber accepts the numeric shapes JSON and YAML decoding produce.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}
