package compliance

// CircuitResult is one calculated string circuit as received from the
// calculation service, normalized into a strict shape. All physical outputs
// are producer-supplied and treated as opaque numbers here; only Status is
// derived locally. A CircuitResult is immutable once built: a new calculation
// replaces the whole batch rather than mutating entries in place.
type CircuitResult struct {
	CircuitID             string   `json:"circuit_id"`
	LengthTotalM          float64  `json:"length_total_m"`
	CurrentNominal        float64  `json:"current_nominal"`
	CurrentAdjusted       float64  `json:"current_adjusted"`
	SectionTheoreticalMm2 float64  `json:"section_theoretical_mm2"`
	SectionCommercialMm2  float64  `json:"section_commercial_mm2"`
	VoltageDropPct        *float64 `json:"voltage_drop_pct,omitempty"`
	VoltageDropVolts      float64  `json:"voltage_drop_volts"`
	JouleLossesW          float64  `json:"joule_losses_w"`
	Status                Status   `json:"compliance_status"`
	// Err holds the producer-supplied failure message. Its presence marks
	// the circuit as failed: excluded from aggregation, kept for the error
	// appendix.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the producer marked this circuit as failed.
func (c CircuitResult) Failed() bool {
	return c.Err != ""
}

// Aggregatable reports whether the circuit may participate in batch
// aggregation: not failed and carrying a voltage-drop figure.
func (c CircuitResult) Aggregatable() bool {
	return !c.Failed() && c.VoltageDropPct != nil
}

// Threshold is the configured voltage-drop classification limit.
// It is configuration, not law: the service enforces whatever limit the
// deployment supplies.
type Threshold struct {
	// MaxVoltageDropPct is the regulatory limit as a percentage.
	MaxVoltageDropPct float64
	// WarningFraction is the fraction of the limit above which a circuit
	// is flagged WARNING while still compliant.
	WarningFraction float64
}

// DefaultThreshold returns the stock 1.5% limit with an 80% warning band.
func DefaultThreshold() Threshold {
	return Threshold{MaxVoltageDropPct: 1.5, WarningFraction: 0.8}
}

// Classify returns a copy of the circuit tagged with its compliance status.
// Classification is pure and deterministic: the same circuit and threshold
// always yield the same status. Rule, in order:
//
//	error present or voltage drop absent -> UNKNOWN
//	voltageDropPct > limit               -> CRITICAL
//	voltageDropPct > warning band        -> WARNING
//	otherwise                            -> OK
func Classify(c CircuitResult, th Threshold) CircuitResult {
	switch {
	case c.Failed() || c.VoltageDropPct == nil:
		c.Status = StatusUnknown
	case *c.VoltageDropPct > th.MaxVoltageDropPct:
		c.Status = StatusCritical
	case *c.VoltageDropPct > th.WarningFraction*th.MaxVoltageDropPct:
		c.Status = StatusWarning
	default:
		c.Status = StatusOK
	}
	return c
}

// ClassifyAll classifies every circuit in order, preserving positions.
func ClassifyAll(circuits []CircuitResult, th Threshold) []CircuitResult {
	out := make([]CircuitResult, len(circuits))
	for i, c := range circuits {
		out[i] = Classify(c, th)
	}
	return out
}
