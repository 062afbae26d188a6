package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yalicar/string-compliance-iq/internal/api/response"
	"github.com/yalicar/string-compliance-iq/internal/calcsvc"
	"github.com/yalicar/string-compliance-iq/internal/compliance"
	"github.com/yalicar/string-compliance-iq/internal/faults"
	"github.com/yalicar/string-compliance-iq/internal/models"
	"github.com/yalicar/string-compliance-iq/internal/report"
	"github.com/yalicar/string-compliance-iq/internal/repository"
)

// ReportHandler builds compliance report documents from the latest committed
// calculation batch and exports them through the render service.
type ReportHandler struct {
	synthesizer *report.Synthesizer
	render      *report.RenderClient
	state       *calcsvc.ResultState
	projectRepo *repository.ProjectRepository
	metaRepo    *repository.ReportMetaRepository
}

// NewReportHandler creates a new report handler.
func NewReportHandler(
	synthesizer *report.Synthesizer,
	render *report.RenderClient,
	state *calcsvc.ResultState,
	projectRepo *repository.ProjectRepository,
	metaRepo *repository.ReportMetaRepository,
) *ReportHandler {
	return &ReportHandler{
		synthesizer: synthesizer,
		render:      render,
		state:       state,
		projectRepo: projectRepo,
		metaRepo:    metaRepo,
	}
}

type reportRequest struct {
	Standard         string                     `json:"standard"`
	Config           report.Config              `json:"config"`
	CalculationSteps []report.CalculationStep   `json:"calculation_steps"`
	Sections         []report.ComplianceSection `json:"compliance_sections"`
	Recommendations  []string                   `json:"recommendations"`
}

// HandlePreview handles POST /api/v1/projects/:project_id/stages/:stage/reports/preview.
// It synthesizes the document and returns the rendered markup without
// touching the render service.
func (h *ReportHandler) HandlePreview(c *gin.Context) {
	doc, _, _, ok := h.buildDocument(c)
	if !ok {
		return
	}

	markup, err := report.Markup(doc)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to render report markup: %v", err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"document": doc,
		"html":     markup,
	})
}

// HandleExport handles POST /api/v1/projects/:project_id/stages/:stage/reports/export.
// The document is rendered to PDF by the render service and streamed back;
// a metadata row is recorded for the project's report history.
func (h *ReportHandler) HandleExport(c *gin.Context) {
	doc, batch, standard, ok := h.buildDocument(c)
	if !ok {
		return
	}

	markup, err := report.Markup(doc)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to render report markup: %v", err))
		return
	}

	filename := fmt.Sprintf("compliance_%s_%s_%s.pdf",
		batch.Stage, batch.ProjectID, time.Now().Format("20060102_150405"))

	pdf, err := h.render.RenderPDF(c.Request.Context(), markup, filename)
	if err != nil {
		if faults.IsTransport(err) {
			response.BadGateway(c, fmt.Sprintf("render service unavailable: %v", err))
			return
		}
		response.InternalError(c, fmt.Sprintf("failed to render PDF: %v", err))
		return
	}

	meta := &models.ReportMeta{
		ID:           uuid.New(),
		ProjectID:    batch.ProjectID,
		Stage:        batch.Stage,
		NormStandard: standard,
		Filename:     filename,
		SizeBytes:    int64(len(pdf)),
		CreatedAt:    time.Now(),
	}
	if err := h.metaRepo.Create(c.Request.Context(), meta); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to record report metadata: %v", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// HandleList handles GET /api/v1/projects/:project_id/reports.
func (h *ReportHandler) HandleList(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	metas, err := h.metaRepo.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to list reports: %v", err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": metas})
}

// buildDocument loads the project and its latest batch, then synthesizes the
// report document from the request body. A false return means the response
// has already been written.
func (h *ReportHandler) buildDocument(c *gin.Context) (*report.ReportDocument, *calcsvc.Batch, string, bool) {
	projectID, stage, ok := parseOverrideScope(c)
	if !ok {
		return nil, nil, "", false
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to load project: %v", err))
		return nil, nil, "", false
	}
	if project == nil {
		response.NotFound(c, "project not found")
		return nil, nil, "", false
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", map[string]string{"error": err.Error()})
		return nil, nil, "", false
	}

	info := report.ProjectInfo{
		Name:         project.Name,
		Location:     project.Location,
		Client:       project.Client,
		Engineer:     project.Engineer,
		Date:         time.Now().Format("2006-01-02"),
		CapacityKWp:  project.CapacityKWp,
		ModuleType:   project.ModuleType,
		InverterType: project.InverterType,
	}

	// A missing batch still produces a valid metadata-only document with
	// no-data placeholders.
	var circuits []compliance.CircuitResult
	var summary compliance.BatchSummary
	batch := h.state.Snapshot(projectID, stage)
	if batch != nil {
		circuits = batch.Circuits
		summary = batch.Summary
	} else {
		batch = &calcsvc.Batch{ProjectID: projectID, Stage: stage}
	}

	doc := h.synthesizer.Synthesize(info, circuits, summary,
		req.CalculationSteps, req.Sections, req.Recommendations, req.Config)
	return doc, batch, req.Standard, true
}
