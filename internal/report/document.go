// Package report assembles compliance analysis into a renderable report
// document: project metadata, the critical-case analysis, per-standard
// compliance sections and embedded chart imagery. Documents are built on
// demand and never persisted; each synthesis is a pure function of the
// in-memory state handed to it.
package report

import (
	"time"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
)

// ProjectInfo is caller-supplied project metadata. Every field is free-form
// and passed through verbatim; nothing here is derived.
type ProjectInfo struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Client       string `json:"client"`
	Engineer     string `json:"engineer"`
	Date         string `json:"date"`
	CapacityKWp  string `json:"capacity_kwp"`
	ModuleType   string `json:"module_type"`
	InverterType string `json:"inverter_type"`
}

// CalculationStep is one explanatory step supplied by the calculation
// service, passed through verbatim.
type CalculationStep struct {
	Description string `json:"description"`
	Formula     string `json:"formula,omitempty"`
	Result      string `json:"result,omitempty"`
}

// CriticalAnalysis is the batch view restricted to the single critical
// circuit, with the producer's calculation steps attached.
type CriticalAnalysis struct {
	Circuit          *compliance.CircuitResult `json:"circuit,omitempty"`
	CalculationSteps []CalculationStep         `json:"calculation_steps,omitempty"`
}

// ComplianceSection is one normative standard's verdict.
type ComplianceSection struct {
	StandardName string   `json:"standard_name"`
	IsCompliant  bool     `json:"is_compliant"`
	Score        int      `json:"score"` // 0-100
	Issues       []string `json:"issues"`
}

// Config selects which optional sections a document carries and the
// template/language variant. Sections are additive: toggling one never
// changes the contents of another.
type Config struct {
	IncludeCalculations    bool   `json:"include_calculations"`
	IncludeValidations     bool   `json:"include_validations"`
	IncludeCharts          bool   `json:"include_charts"`
	IncludeRecommendations bool   `json:"include_recommendations"`
	Template               string `json:"template"`
	Language               string `json:"language"`
}

// Chart is one rendered chart image ready for embedding.
type Chart struct {
	Title string `json:"title"`
	PNG   []byte `json:"png"`
}

// ReportDocument is the synthesizer's output.
type ReportDocument struct {
	Project     ProjectInfo `json:"project"`
	GeneratedAt time.Time   `json:"generated_at"`
	Config      Config      `json:"config"`

	// Calculations section. NoData is set instead of the summary when the
	// batch carried no valid circuits.
	Summary          *compliance.BatchSummary `json:"summary,omitempty"`
	CriticalAnalysis *CriticalAnalysis        `json:"critical_analysis,omitempty"`
	NoData           bool                     `json:"no_data,omitempty"`

	ComplianceSections []ComplianceSection `json:"compliance_sections,omitempty"`
	Charts             []Chart             `json:"charts,omitempty"`
	Recommendations    []string            `json:"recommendations,omitempty"`
}
