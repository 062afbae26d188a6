package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yalicar/string-compliance-iq/internal/api/response"
	"github.com/yalicar/string-compliance-iq/internal/calcsvc"
	"github.com/yalicar/string-compliance-iq/internal/faults"
	"github.com/yalicar/string-compliance-iq/internal/normative"
	"github.com/yalicar/string-compliance-iq/internal/repository"
)

// CalculationHandler triggers calculation runs and serves their results.
type CalculationHandler struct {
	pipeline    *calcsvc.Pipeline
	state       *calcsvc.ResultState
	projectRepo *repository.ProjectRepository
}

// NewCalculationHandler creates a new calculation handler.
func NewCalculationHandler(pipeline *calcsvc.Pipeline, state *calcsvc.ResultState, projectRepo *repository.ProjectRepository) *CalculationHandler {
	return &CalculationHandler{pipeline: pipeline, state: state, projectRepo: projectRepo}
}

// HandleCalculate handles POST /api/v1/projects/:project_id/stages/:stage/calculations/:standard.
// It runs the full calculation pipeline against the upstream service and
// commits the classified batch as the latest result for the stage.
func (h *CalculationHandler) HandleCalculate(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	std, err := normative.ParseStandard(c.Param("standard"))
	if err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to load project: %v", err))
		return
	}
	if project == nil {
		response.NotFound(c, "project not found")
		return
	}

	batch, err := h.pipeline.Execute(c.Request.Context(), projectID, stage, std)
	if err != nil {
		if faults.IsTransport(err) {
			response.BadGateway(c, fmt.Sprintf("calculation service unavailable: %v", err))
			return
		}
		response.InternalError(c, fmt.Sprintf("calculation failed: %v", err))
		return
	}

	response.Success(c, http.StatusOK, batchPayload(batch))
}

// HandleGetResults handles GET /api/v1/projects/:project_id/stages/:stage/results.
// It returns the most recently committed batch for the stage, if any.
func (h *CalculationHandler) HandleGetResults(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	batch := h.state.Snapshot(projectID, stage)
	if batch == nil {
		response.NotFound(c, "no calculation results for this stage")
		return
	}
	response.Success(c, http.StatusOK, batchPayload(batch))
}

// HandleGetOverLimit handles GET /api/v1/projects/:project_id/stages/:stage/results/over-limit.
// Optional query parameter "limit" caps the number of circuits returned.
func (h *CalculationHandler) HandleGetOverLimit(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	batch := h.state.Snapshot(projectID, stage)
	if batch == nil {
		response.NotFound(c, "no calculation results for this stage")
		return
	}

	over := batch.Summary.OverLimitCircuits
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, "limit must be a non-negative integer", nil)
			return
		}
		if n < len(over) {
			over = over[:n]
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"project_id": batch.ProjectID,
		"stage":      batch.Stage,
		"threshold":  batch.Summary.Threshold,
		"circuits":   over,
		"total":      len(batch.Summary.OverLimitCircuits),
	})
}

func batchPayload(b *calcsvc.Batch) gin.H {
	return gin.H{
		"project_id":            b.ProjectID,
		"stage":                 b.Stage,
		"has_project_overrides": b.HasProjectOverrides,
		"circuits":              b.Circuits,
		"summary":               b.Summary,
	}
}
