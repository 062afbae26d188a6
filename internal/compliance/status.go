package compliance

// Status is the compliance classification of a single calculated circuit.
// It is always derived locally from the circuit's voltage drop and the
// active threshold; the calculation service never supplies it.
type Status string

const (
	// StatusOK means the voltage drop is inside the regulatory limit with margin.
	StatusOK Status = "OK"
	// StatusWarning means the voltage drop is inside the limit but within the
	// warning band (above WarningFraction of the limit).
	StatusWarning Status = "WARNING"
	// StatusCritical means the voltage drop exceeds the regulatory limit.
	StatusCritical Status = "CRITICAL"
	// StatusUnknown means the circuit failed calculation or carries no
	// voltage-drop figure; such circuits are excluded from aggregation.
	StatusUnknown Status = "UNKNOWN"
)

// Valid reports whether s is one of the defined classifications.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusWarning, StatusCritical, StatusUnknown:
		return true
	default:
		return false
	}
}

// OverLimit reports whether the classification marks a limit violation.
func (s Status) OverLimit() bool {
	return s == StatusCritical
}
