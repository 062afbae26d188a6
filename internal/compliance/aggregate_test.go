package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifiedBatch(t *testing.T, th Threshold, drops map[string]float64, order []string) []CircuitResult {
	t.Helper()
	out := make([]CircuitResult, 0, len(order))
	for _, id := range order {
		d := drops[id]
		out = append(out, Classify(CircuitResult{CircuitID: id, VoltageDropPct: fpct(d)}, th))
	}
	return out
}

func TestAggregate_SpecScenario(t *testing.T) {
	// S1=1.2, S2=1.8, S3=0.9 against a 1.5% limit.
	th := Threshold{MaxVoltageDropPct: 1.5, WarningFraction: 0.8}
	batch := classifiedBatch(t, th,
		map[string]float64{"S1": 1.2, "S2": 1.8, "S3": 0.9},
		[]string{"S1", "S2", "S3"},
	)

	summary := Aggregate(batch, th)

	assert.Equal(t, 3, summary.ValidCircuits)
	assert.Equal(t, 0, summary.ErrorCircuits)
	require.NotNil(t, summary.CriticalCircuit)
	require.NotNil(t, summary.BestCircuit)
	assert.Equal(t, "S2", summary.CriticalCircuit.CircuitID, "critical circuit is the worst voltage drop")
	assert.Equal(t, "S3", summary.BestCircuit.CircuitID, "best circuit is the lowest voltage drop")

	require.Len(t, summary.OverLimitCircuits, 1)
	assert.Equal(t, "S2", summary.OverLimitCircuits[0].CircuitID)
}

func TestAggregate_CriticalAndBestBounds(t *testing.T) {
	th := DefaultThreshold()
	batch := classifiedBatch(t, th,
		map[string]float64{"A": 0.7, "B": 2.4, "C": 1.1, "D": 0.3, "E": 1.9},
		[]string{"A", "B", "C", "D", "E"},
	)

	summary := Aggregate(batch, th)
	require.NotNil(t, summary.CriticalCircuit)
	require.NotNil(t, summary.BestCircuit)

	for _, c := range batch {
		assert.GreaterOrEqual(t, *summary.CriticalCircuit.VoltageDropPct, *c.VoltageDropPct,
			"critical circuit must dominate every valid circuit")
		assert.LessOrEqual(t, *summary.BestCircuit.VoltageDropPct, *c.VoltageDropPct,
			"best circuit must be dominated by every valid circuit")
	}
}

func TestAggregate_TiesKeepEarliestSeen(t *testing.T) {
	th := DefaultThreshold()
	batch := classifiedBatch(t, th,
		map[string]float64{"S1": 2.0, "S2": 2.0, "S3": 0.5, "S4": 0.5},
		[]string{"S1", "S2", "S3", "S4"},
	)

	summary := Aggregate(batch, th)
	assert.Equal(t, "S1", summary.CriticalCircuit.CircuitID, "max tie breaks to the first-encountered circuit")
	assert.Equal(t, "S3", summary.BestCircuit.CircuitID, "min tie breaks to the first-encountered circuit")
}

func TestAggregate_OverLimitIsOrderedFilter(t *testing.T) {
	th := Threshold{MaxVoltageDropPct: 1.0, WarningFraction: 0.8}
	batch := classifiedBatch(t, th,
		map[string]float64{"S1": 1.4, "S2": 0.2, "S3": 3.0, "S4": 1.01, "S5": 1.0},
		[]string{"S1", "S2", "S3", "S4", "S5"},
	)

	summary := Aggregate(batch, th)

	ids := make([]string, 0, len(summary.OverLimitCircuits))
	for _, c := range summary.OverLimitCircuits {
		ids = append(ids, c.CircuitID)
	}
	assert.Equal(t, []string{"S1", "S3", "S4"}, ids,
		"over-limit set is exactly the strict exceeders, in original relative order")
}

func TestAggregate_EmptyBatch(t *testing.T) {
	summary := Aggregate(nil, DefaultThreshold())

	assert.Equal(t, 0, summary.TotalCircuits)
	assert.Equal(t, 0, summary.ValidCircuits)
	assert.Nil(t, summary.CriticalCircuit, "no critical circuit may be selected from an empty batch")
	assert.Nil(t, summary.BestCircuit)
	assert.Empty(t, summary.OverLimitCircuits)
	assert.Zero(t, summary.AverageVoltageDropPct)
}

func TestAggregate_AllFailedBatch(t *testing.T) {
	th := DefaultThreshold()
	batch := []CircuitResult{
		Classify(CircuitResult{CircuitID: "S1", Err: "invalid lengths: pos=0m"}, th),
		Classify(CircuitResult{CircuitID: "S2", Err: "missing panel data"}, th),
	}

	summary := Aggregate(batch, th)

	assert.Equal(t, 2, summary.TotalCircuits)
	assert.Equal(t, 0, summary.ValidCircuits)
	assert.Equal(t, 2, summary.ErrorCircuits)
	assert.Nil(t, summary.CriticalCircuit)
	require.Len(t, summary.FailedCircuits, 2, "failed circuits are retained verbatim for the error appendix")
	assert.Equal(t, "invalid lengths: pos=0m", summary.FailedCircuits[0].Err)
}

func TestAggregate_MixedBatchExcludesFailures(t *testing.T) {
	th := DefaultThreshold()
	batch := []CircuitResult{
		Classify(CircuitResult{CircuitID: "S1", VoltageDropPct: fpct(1.0), JouleLossesW: 10, LengthTotalM: 40}, th),
		Classify(CircuitResult{CircuitID: "S2", Err: "calc failed"}, th),
		Classify(CircuitResult{CircuitID: "S3", VoltageDropPct: fpct(2.0), JouleLossesW: 30, LengthTotalM: 80}, th),
	}

	summary := Aggregate(batch, th)

	assert.Equal(t, 3, summary.TotalCircuits)
	assert.Equal(t, 2, summary.ValidCircuits)
	assert.Equal(t, 1, summary.ErrorCircuits)
	assert.InDelta(t, 1.5, summary.AverageVoltageDropPct, 1e-9, "averages cover valid circuits only")
	assert.InDelta(t, 40.0, summary.TotalJouleLossesW, 1e-9)
	assert.InDelta(t, 60.0, summary.AverageLengthM, 1e-9)
}
