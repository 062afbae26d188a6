package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
)

func pinnedSynthesizer() *Synthesizer {
	s := NewSynthesizer(nil)
	s.now = func() time.Time {
		return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	}
	return s
}

func sampleProject() ProjectInfo {
	return ProjectInfo{
		Name:         "Solar Norte 25MW",
		Location:     "Antofagasta, Chile",
		Client:       "Energia del Desierto",
		Engineer:     "P. Rojas",
		Date:         "2026-03-14",
		CapacityKWp:  "25000",
		ModuleType:   "550W mono PERC",
		InverterType: "Central 3.6MVA",
	}
}

func sampleBatch(t *testing.T) ([]compliance.CircuitResult, compliance.BatchSummary) {
	t.Helper()
	pct := func(v float64) *float64 { return &v }
	circuits := compliance.ClassifyAll([]compliance.CircuitResult{
		{CircuitID: "S1", VoltageDropPct: pct(1.2), JouleLossesW: 120, LengthTotalM: 240},
		{CircuitID: "S2", VoltageDropPct: pct(1.8), JouleLossesW: 310, LengthTotalM: 410},
		{CircuitID: "S3", VoltageDropPct: pct(0.9), JouleLossesW: 85, LengthTotalM: 180},
		{CircuitID: "S4", Err: "invalid lengths"},
	}, compliance.DefaultThreshold())
	summary := compliance.Aggregate(circuits, compliance.DefaultThreshold())
	require.Equal(t, 3, summary.ValidCircuits)
	return circuits, summary
}

func allSections() Config {
	return Config{
		IncludeCalculations:    true,
		IncludeValidations:     true,
		IncludeCharts:          true,
		IncludeRecommendations: true,
		Template:               "standard",
		Language:               "en",
	}
}

func TestSynthesize_FullDocument(t *testing.T) {
	s := pinnedSynthesizer()
	circuits, summary := sampleBatch(t)

	steps := []CalculationStep{{Description: "Adjusted current", Formula: "I = Isc x 1.25", Result: "18.2 A"}}
	sections := []ComplianceSection{{StandardName: "IEC 60364-7-712", IsCompliant: false, Score: 72, Issues: []string{"S2 exceeds 1.5% limit"}}}
	recs := []string{"Increase S2 section to 6 mm2"}

	doc := s.Synthesize(sampleProject(), circuits, summary, steps, sections, recs, allSections())

	assert.Equal(t, time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), doc.GeneratedAt)
	require.NotNil(t, doc.Summary)
	assert.Equal(t, 3, doc.Summary.ValidCircuits)
	require.NotNil(t, doc.CriticalAnalysis)
	require.NotNil(t, doc.CriticalAnalysis.Circuit)
	assert.Equal(t, "S2", doc.CriticalAnalysis.Circuit.CircuitID)
	assert.Equal(t, steps, doc.CriticalAnalysis.CalculationSteps)
	assert.Equal(t, sections, doc.ComplianceSections)
	assert.Equal(t, recs, doc.Recommendations)
	assert.Len(t, doc.Charts, 2)
	assert.False(t, doc.NoData)
}

func TestSynthesize_MetadataOnlyRoundTrip(t *testing.T) {
	s := pinnedSynthesizer()
	circuits, summary := sampleBatch(t)

	doc := s.Synthesize(sampleProject(), circuits, summary, nil, nil, nil, Config{})

	assert.Equal(t, sampleProject(), doc.Project)
	assert.Nil(t, doc.Summary, "calculations off leaves no summary")
	assert.Nil(t, doc.CriticalAnalysis)
	assert.Nil(t, doc.ComplianceSections)
	assert.Nil(t, doc.Charts)
	assert.Nil(t, doc.Recommendations)
	assert.False(t, doc.NoData)
}

func TestSynthesize_SectionsAreIndependent(t *testing.T) {
	s := pinnedSynthesizer()
	circuits, summary := sampleBatch(t)
	sections := []ComplianceSection{{StandardName: "NEC Article 690", IsCompliant: true, Score: 95, Issues: []string{}}}

	withCharts := s.Synthesize(sampleProject(), circuits, summary, nil, sections, nil,
		Config{IncludeValidations: true, IncludeCharts: true})
	withoutCharts := s.Synthesize(sampleProject(), circuits, summary, nil, sections, nil,
		Config{IncludeValidations: true})

	assert.Equal(t, withCharts.ComplianceSections, withoutCharts.ComplianceSections,
		"toggling charts must not change the validations section")
	assert.NotEmpty(t, withCharts.Charts)
	assert.Nil(t, withoutCharts.Charts)
}

func TestSynthesize_NoDataPlaceholder(t *testing.T) {
	s := pinnedSynthesizer()
	failed := []compliance.CircuitResult{{CircuitID: "S1", Err: "boom", Status: compliance.StatusUnknown}}
	summary := compliance.Aggregate(failed, compliance.DefaultThreshold())
	require.Zero(t, summary.ValidCircuits)

	doc := s.Synthesize(sampleProject(), failed, summary, nil, nil, nil, allSections())

	assert.True(t, doc.NoData, "an empty batch renders a placeholder, not empty charts")
	assert.Nil(t, doc.Summary)
	assert.Empty(t, doc.Charts)

	markup, err := Markup(doc)
	require.NoError(t, err)
	assert.Contains(t, markup, "No calculation data available")
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := pinnedSynthesizer()
	circuits, summary := sampleBatch(t)

	a := s.Synthesize(sampleProject(), circuits, summary, nil, nil, nil, Config{IncludeCharts: true})
	b := s.Synthesize(sampleProject(), circuits, summary, nil, nil, nil, Config{IncludeCharts: true})

	require.Len(t, a.Charts, 2)
	require.Len(t, b.Charts, 2)
	for i := range a.Charts {
		assert.Equal(t, a.Charts[i].PNG, b.Charts[i].PNG,
			"the same series must yield pixel-identical chart bytes")
	}
}

func TestMarkup_SelfContained(t *testing.T) {
	s := pinnedSynthesizer()
	circuits, summary := sampleBatch(t)

	doc := s.Synthesize(sampleProject(), circuits, summary, nil, nil, nil, allSections())
	markup, err := Markup(doc)
	require.NoError(t, err)

	assert.Contains(t, markup, "Solar Norte 25MW")
	assert.Contains(t, markup, "data:image/png;base64,", "charts embed as data URIs")
	assert.NotContains(t, markup, "src=\"http", "markup must not reference external resources")
	assert.Contains(t, markup, "S4", "failed circuits appear in the error appendix")
	assert.Contains(t, markup, "invalid lengths")
}
