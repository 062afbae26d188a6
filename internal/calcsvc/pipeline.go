package calcsvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
	"github.com/yalicar/string-compliance-iq/internal/normative"
)

// Calculator is the outbound dependency of the pipeline; satisfied by
// *Client in production and by fakes in tests.
type Calculator interface {
	Calculate(ctx context.Context, projectID uuid.UUID, stage string, std normative.Standard) (*Response, error)
}

// Pipeline runs one compliance calculation end to end: request the external
// calculation service, normalize its records, classify and aggregate them,
// and commit the batch under the generation guard.
type Pipeline struct {
	calc      Calculator
	normative *normative.Manager
	state     *ResultState
	threshold compliance.Threshold
}

// NewPipeline wires a calculation pipeline. The threshold supplies the
// deployment's warning fraction; its limit is replaced per run by the
// effective normative parameters when they carry one.
func NewPipeline(calc Calculator, nm *normative.Manager, state *ResultState, th compliance.Threshold) *Pipeline {
	return &Pipeline{calc: calc, normative: nm, state: state, threshold: th}
}

// Execute performs one calculation run. Steps:
// a. Issues a request generation for the project stage
// b. Resolves effective normative parameters (base + project override)
// c. Calls the calculation service
// d. Normalizes the loose records into strict circuit results
// e. Classifies and aggregates the batch
// f. Commits under the generation guard; a stale run is discarded
// The returned batch is the one produced by this run even when a newer run
// superseded it in state; callers can tell from Commit's outcome in logs.
func (p *Pipeline) Execute(ctx context.Context, projectID uuid.UUID, stage string, std normative.Standard) (*Batch, error) {
	startTime := time.Now()
	logger := slog.Default().With(
		slog.String("service", "calc-pipeline"),
		slog.String("project_id", projectID.String()),
		slog.String("stage", stage),
		slog.String("norm_standard", string(std)),
	)

	// Step a: issue generation
	gen := p.state.Begin(projectID, stage)
	logger = logger.With(slog.Uint64("generation", gen))

	// Step b: resolve effective parameters
	stepLogger := logger.With(slog.String("step", "resolve_parameters"))
	th := p.threshold
	params, hasOverride, err := p.normative.EffectiveParameters(ctx, projectID, stage, std)
	if err != nil {
		// Degraded resolution still yields the base standard; the run
		// proceeds on base parameters.
		stepLogger.Warn("override resolution degraded to base standard",
			slog.String("error", err.Error()))
	}
	if limit, ok := params.Lookup("voltage_drop.max_percentage"); ok {
		if v, ok := limit.Value.(float64); ok && v > 0 {
			th.MaxVoltageDropPct = v
		}
	}
	stepLogger.Info("parameters resolved",
		slog.Bool("has_override", hasOverride),
		slog.Float64("max_voltage_drop_pct", th.MaxVoltageDropPct))

	// Step c: call calculation service
	stepLogger = logger.With(slog.String("step", "calculate"))
	resp, err := p.calc.Calculate(ctx, projectID, stage, std)
	if err != nil {
		stepLogger.Error("calculation service call failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to execute calculation: %w", err)
	}

	// Steps d, e: normalize, classify, aggregate
	circuits := compliance.ClassifyAll(NormalizeAll(resp.Records), th)
	summary := compliance.Aggregate(circuits, th)

	batch := &Batch{
		ProjectID:           projectID,
		Stage:               stage,
		Generation:          gen,
		HasProjectOverrides: hasOverride || resp.HasProjectOverrides,
		Circuits:            circuits,
		Summary:             summary,
	}

	// Step f: commit under the generation guard
	if !p.state.Commit(batch) {
		logger.Warn("stale calculation discarded, a newer request superseded it",
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
		return batch, nil
	}

	logger.Info("calculation batch committed",
		slog.Int("total_circuits", summary.TotalCircuits),
		slog.Int("valid_circuits", summary.ValidCircuits),
		slog.Int("error_circuits", summary.ErrorCircuits),
		slog.Int("over_limit", len(summary.OverLimitCircuits)),
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return batch, nil
}
