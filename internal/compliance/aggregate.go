package compliance

// BatchSummary holds the derived statistics for one calculation batch.
// It is never persisted independently of the batch that produced it; a new
// calculation discards the previous summary wholesale.
type BatchSummary struct {
	TotalCircuits int `json:"total_circuits"`
	ValidCircuits int `json:"valid_circuits"`
	ErrorCircuits int `json:"error_circuits"`

	// CriticalCircuit is the valid circuit with the maximum voltage drop;
	// BestCircuit the one with the minimum. Both are nil when ValidCircuits
	// is zero. Ties keep the earliest-seen circuit.
	CriticalCircuit *CircuitResult `json:"critical_circuit,omitempty"`
	BestCircuit     *CircuitResult `json:"best_circuit,omitempty"`

	// OverLimitCircuits is the subset of valid circuits whose voltage drop
	// exceeds the threshold, in original order.
	OverLimitCircuits []CircuitResult `json:"over_limit_circuits,omitempty"`

	AverageVoltageDropPct float64 `json:"average_voltage_drop_pct"`
	TotalJouleLossesW     float64 `json:"total_joule_losses_w"`
	AverageLengthM        float64 `json:"average_length_m"`

	// Threshold records the limit this summary was computed against.
	Threshold Threshold `json:"-"`

	// FailedCircuits lists the circuits excluded from aggregation, verbatim,
	// for the error appendix of reports.
	FailedCircuits []CircuitResult `json:"failed_circuits,omitempty"`
}

// Aggregate computes a BatchSummary over a classified batch. It is a pure
// function: a single linear scan with stable critical/best selection and an
// order-preserving over-limit filter. An empty or all-failed batch yields
// ValidCircuits = 0 and no derived selections; Aggregate never panics or
// divides by zero for that case. Callers must check ValidCircuits before
// reading the derived fields.
func Aggregate(circuits []CircuitResult, th Threshold) BatchSummary {
	summary := BatchSummary{TotalCircuits: len(circuits), Threshold: th}

	var sumDrop, sumJoule, sumLength float64
	for i := range circuits {
		c := circuits[i]
		if !c.Aggregatable() {
			summary.ErrorCircuits++
			summary.FailedCircuits = append(summary.FailedCircuits, c)
			continue
		}
		summary.ValidCircuits++

		drop := *c.VoltageDropPct
		sumDrop += drop
		sumJoule += c.JouleLossesW
		sumLength += c.LengthTotalM

		// First valid circuit seeds both accumulators; strict comparisons
		// keep the earliest-seen circuit on ties.
		if summary.CriticalCircuit == nil || drop > *summary.CriticalCircuit.VoltageDropPct {
			cc := c
			summary.CriticalCircuit = &cc
		}
		if summary.BestCircuit == nil || drop < *summary.BestCircuit.VoltageDropPct {
			bc := c
			summary.BestCircuit = &bc
		}

		if drop > th.MaxVoltageDropPct {
			summary.OverLimitCircuits = append(summary.OverLimitCircuits, c)
		}
	}

	if summary.ValidCircuits > 0 {
		n := float64(summary.ValidCircuits)
		summary.AverageVoltageDropPct = sumDrop / n
		summary.TotalJouleLossesW = sumJoule
		summary.AverageLengthM = sumLength / n
	}

	return summary
}
