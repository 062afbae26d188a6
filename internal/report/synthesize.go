package report

import (
	"log/slog"
	"time"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
)

// Synthesizer builds report documents. The clock is injectable so tests can
// pin the generation timestamp; synthesis is otherwise a pure function of
// its arguments.
type Synthesizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewSynthesizer returns a synthesizer on the real clock.
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		logger: logger.With(slog.String("component", "report_synthesizer")),
		now:    time.Now,
	}
}

// Synthesize assembles a document from project metadata, the latest batch
// summary, the per-standard compliance verdicts and the section config.
// Sections are independent: toggling one never changes another. A batch with
// no valid circuits yields a no-data placeholder instead of empty charts,
// and a failed chart degrades to omitting that single chart.
func (s *Synthesizer) Synthesize(project ProjectInfo, circuits []compliance.CircuitResult, summary compliance.BatchSummary, steps []CalculationStep, sections []ComplianceSection, recommendations []string, cfg Config) *ReportDocument {
	doc := &ReportDocument{
		Project:     project,
		GeneratedAt: s.now().UTC(),
		Config:      cfg,
	}

	hasData := summary.ValidCircuits > 0

	if cfg.IncludeCalculations {
		if hasData {
			sum := summary
			doc.Summary = &sum
			doc.CriticalAnalysis = &CriticalAnalysis{
				Circuit:          summary.CriticalCircuit,
				CalculationSteps: steps,
			}
		} else {
			doc.NoData = true
		}
	}

	if cfg.IncludeValidations {
		doc.ComplianceSections = append([]ComplianceSection(nil), sections...)
	}

	if cfg.IncludeCharts {
		if hasData {
			doc.Charts = s.buildCharts(circuits, summary.Threshold)
		} else {
			doc.NoData = true
		}
	}

	if cfg.IncludeRecommendations {
		doc.Recommendations = append([]string(nil), recommendations...)
	}

	return doc
}

// buildCharts renders the chart set from the batch's valid circuits. A chart
// that fails to render is logged and omitted; the rest of the document is
// unaffected.
func (s *Synthesizer) buildCharts(circuits []compliance.CircuitResult, th compliance.Threshold) []Chart {
	vdrop, losses := chartSeries(circuits)
	limit := th.MaxVoltageDropPct

	var charts []Chart
	chart, err := RenderChart("Voltage drop per circuit", func(c Canvas) error {
		return DrawVoltageDropChart(c, vdrop, limit)
	})
	if err != nil {
		s.logger.Warn("voltage-drop chart omitted", slog.String("error", err.Error()))
	} else {
		charts = append(charts, chart)
	}

	chart, err = RenderChart("Joule losses per circuit", func(c Canvas) error {
		return DrawLossesChart(c, losses)
	})
	if err != nil {
		s.logger.Warn("losses chart omitted", slog.String("error", err.Error()))
	} else {
		charts = append(charts, chart)
	}
	return charts
}

// chartSeries extracts the plottable series from the batch's valid circuits,
// preserving batch order.
func chartSeries(circuits []compliance.CircuitResult) (vdrop, losses Series) {
	for _, c := range circuits {
		if !c.Aggregatable() {
			continue
		}
		vdrop.Labels = append(vdrop.Labels, c.CircuitID)
		vdrop.Values = append(vdrop.Values, *c.VoltageDropPct)
		losses.Labels = append(losses.Labels, c.CircuitID)
		losses.Values = append(losses.Values, c.JouleLossesW)
	}
	return vdrop, losses
}
