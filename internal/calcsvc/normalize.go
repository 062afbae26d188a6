package calcsvc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
)

// Field names used by the calculation service's record payload.
const (
	fieldCircuitID         = "string_id"
	fieldLengthTotal       = "length_total_m"
	fieldCurrentNominal    = "i_nominal"
	fieldCurrentAdjusted   = "i_adjusted"
	fieldSectionTheoretic  = "s_teorica_mm2"
	fieldSectionCommercial = "s_comercial_mm2"
	fieldVDropVolts        = "v_drop_real_volts"
	fieldVDropPct          = "v_drop_real_pct"
	fieldJouleLosses       = "joule_losses_w"
	fieldError             = "error"
)

// Normalize maps one loosely-typed service record into the strict
// CircuitResult shape. Records that do not conform are not dropped: they are
// flagged with an error so they surface in the failed-circuits appendix
// instead of silently vanishing from a batch.
func Normalize(raw RawRecord) compliance.CircuitResult {
	out := compliance.CircuitResult{
		CircuitID: stringField(raw, fieldCircuitID),
		Err:       stringField(raw, fieldError),
	}
	if out.CircuitID == "" {
		out.CircuitID = "UNKNOWN"
		out.Err = joinErr(out.Err, "record missing string_id")
	}
	// A producer-failed record carries only id + error; skip field checks.
	if stringField(raw, fieldError) != "" {
		return out
	}

	var bad []string
	assign := func(field string, dst *float64) {
		v, ok, err := numberField(raw, field)
		if err != nil {
			bad = append(bad, field)
			return
		}
		if ok {
			*dst = v
		}
	}
	assign(fieldLengthTotal, &out.LengthTotalM)
	assign(fieldCurrentNominal, &out.CurrentNominal)
	assign(fieldCurrentAdjusted, &out.CurrentAdjusted)
	assign(fieldSectionTheoretic, &out.SectionTheoreticalMm2)
	assign(fieldSectionCommercial, &out.SectionCommercialMm2)
	assign(fieldVDropVolts, &out.VoltageDropVolts)
	assign(fieldJouleLosses, &out.JouleLossesW)

	if v, ok, err := numberField(raw, fieldVDropPct); err != nil {
		bad = append(bad, fieldVDropPct)
	} else if ok {
		out.VoltageDropPct = &v
	}

	if len(bad) > 0 {
		out.Err = joinErr(out.Err, fmt.Sprintf("non-numeric fields: %s", strings.Join(bad, ", ")))
	}
	return out
}

// NormalizeAll normalizes every record preserving the service's ordering.
func NormalizeAll(raws []RawRecord) []compliance.CircuitResult {
	out := make([]compliance.CircuitResult, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

func stringField(raw RawRecord, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// numberField extracts a numeric field. JSON decoding yields float64, but
// records assembled in tests or re-encoded upstream may carry ints. A null
// or absent field is (0, false, nil); a non-numeric value is an error.
func numberField(raw RawRecord, key string) (float64, bool, error) {
	v, present := raw[key]
	if !present || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}

func joinErr(existing, added string) string {
	if existing == "" {
		return added
	}
	return existing + "; " + added
}
