package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yalicar/string-compliance-iq/internal/api/response"
	"github.com/yalicar/string-compliance-iq/internal/faults"
	"github.com/yalicar/string-compliance-iq/internal/normative"
)

// NormativeHandler exposes the override lifecycle: status checks, standard
// catalogs, effective parameter resolution and override mutations.
type NormativeHandler struct {
	manager *normative.Manager
	catalog *normative.Catalog
}

// NewNormativeHandler creates a new normative handler.
func NewNormativeHandler(manager *normative.Manager, catalog *normative.Catalog) *NormativeHandler {
	return &NormativeHandler{manager: manager, catalog: catalog}
}

// HandleListStandards handles GET /api/v1/normative/standards.
func (h *NormativeHandler) HandleListStandards(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"standards": h.catalog.Available(),
		"stages":    normative.Stages,
	})
}

// HandleStatus handles GET /api/v1/projects/:project_id/normative/status.
// Store failures degrade to LOAD_FAILED per-project rather than erroring.
func (h *NormativeHandler) HandleStatus(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	status, err := h.manager.CheckStatus(c.Request.Context(), projectID)
	if err != nil && !faults.IsTransport(err) {
		response.InternalError(c, fmt.Sprintf("failed to check override status: %v", err))
		return
	}
	response.Success(c, http.StatusOK, status)
}

// HandleEffectiveParameters handles
// GET /api/v1/projects/:project_id/normative/stages/:stage/parameters?standard=IEC.
func (h *NormativeHandler) HandleEffectiveParameters(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	std, err := normative.ParseStandard(c.DefaultQuery("standard", string(normative.StandardIEC)))
	if err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	params, overridden, err := h.manager.EffectiveParameters(c.Request.Context(), projectID, stage, std)
	if err != nil && !faults.IsTransport(err) {
		response.InternalError(c, fmt.Sprintf("failed to resolve parameters: %v", err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"project_id": projectID,
		"stage":      stage,
		"standard":   std,
		"overridden": overridden,
		"degraded":   err != nil,
		"parameters": params,
	})
}

type overrideRequest struct {
	BaseStandard string         `json:"base_standard"`
	Parameters   map[string]any `json:"parameters"`
}

// HandleCreateOverride handles POST /api/v1/projects/:project_id/normative/stages/:stage/override.
func (h *NormativeHandler) HandleCreateOverride(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", map[string]string{"error": err.Error()})
		return
	}

	std, err := normative.ParseStandard(req.BaseStandard)
	if err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	if err := h.manager.CreateOverride(c.Request.Context(), projectID, stage, std, req.Parameters); err != nil {
		h.writeOverrideError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"project_id":    projectID,
		"stage":         stage,
		"base_standard": std,
		"state":         h.manager.State(projectID, stage),
	})
}

// HandleUpdateOverride handles PUT /api/v1/projects/:project_id/normative/stages/:stage/override.
func (h *NormativeHandler) HandleUpdateOverride(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", map[string]string{"error": err.Error()})
		return
	}
	if len(req.Parameters) == 0 {
		response.BadRequest(c, "parameters cannot be empty", nil)
		return
	}

	if err := h.manager.UpdateOverride(c.Request.Context(), projectID, stage, req.Parameters); err != nil {
		h.writeOverrideError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"project_id": projectID,
		"stage":      stage,
		"state":      h.manager.State(projectID, stage),
	})
}

type resetRequest struct {
	Confirmed bool `json:"confirmed"`
}

// HandleResetOverride handles DELETE /api/v1/projects/:project_id/normative/stages/:stage/override.
// Resets require an explicit confirmation flag in the body.
func (h *NormativeHandler) HandleResetOverride(c *gin.Context) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return
	}

	var req resetRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.manager.ResetOverride(c.Request.Context(), projectID, stage, req.Confirmed); err != nil {
		h.writeOverrideError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"project_id": projectID,
		"stage":      stage,
		"state":      h.manager.State(projectID, stage),
	})
}

type copyBaseRequest struct {
	BaseStandard string `json:"base_standard" binding:"required"`
}

// HandleCopyBaseToAllStages handles POST /api/v1/projects/:project_id/normative/copy-base.
// Every stage without an override gets seeded with an editable copy of the
// base standard; stages that already have one are left alone.
func (h *NormativeHandler) HandleCopyBaseToAllStages(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req copyBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", map[string]string{"error": err.Error()})
		return
	}

	std, err := normative.ParseStandard(req.BaseStandard)
	if err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	seeded, err := h.manager.CopyBaseToAllStages(c.Request.Context(), projectID, std)
	if err != nil {
		h.writeOverrideError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"project_id":    projectID,
		"base_standard": std,
		"seeded_stages": seeded,
	})
}

func (h *NormativeHandler) writeOverrideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, normative.ErrOverrideExists):
		response.Conflict(c, "an override already exists for this stage", nil)
	case errors.Is(err, normative.ErrNoActiveOverride):
		response.NotFound(c, "no active override for this stage")
	case errors.Is(err, normative.ErrConfirmationRequired):
		response.BadRequest(c, "reset requires confirmed=true", nil)
	case faults.IsValidation(err):
		response.BadRequest(c, err.Error(), nil)
	case faults.IsTransport(err):
		response.BadGateway(c, fmt.Sprintf("override store unavailable: %v", err))
	default:
		response.InternalError(c, fmt.Sprintf("override operation failed: %v", err))
	}
}

func parseProjectID(c *gin.Context) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		response.BadRequest(c, "invalid project_id", nil)
		return uuid.Nil, false
	}
	return projectID, true
}

func parseOverrideScope(c *gin.Context) (uuid.UUID, string, bool) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	stage := c.Param("stage")
	if !normative.KnownStage(stage) {
		response.BadRequest(c, fmt.Sprintf("unknown stage %q", stage), nil)
		return uuid.Nil, "", false
	}
	return projectID, stage, true
}
