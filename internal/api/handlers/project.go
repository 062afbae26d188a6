package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yalicar/string-compliance-iq/internal/api/response"
	"github.com/yalicar/string-compliance-iq/internal/models"
	"github.com/yalicar/string-compliance-iq/internal/repository"
)

// ProjectHandler handles project CRUD operations.
type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projectRepo *repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

type createProjectRequest struct {
	Name         string `json:"name" binding:"required"`
	Location     string `json:"location"`
	Client       string `json:"client"`
	Engineer     string `json:"engineer"`
	CapacityKWp  string `json:"capacity_kwp"`
	ModuleType   string `json:"module_type"`
	InverterType string `json:"inverter_type"`
}

// HandleCreate handles POST /api/v1/projects.
func (h *ProjectHandler) HandleCreate(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", map[string]string{"error": err.Error()})
		return
	}

	existing, err := h.projectRepo.GetByName(c.Request.Context(), req.Name)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to check project name: %v", err))
		return
	}
	if existing != nil {
		response.Conflict(c, "a project with this name already exists", gin.H{"project_id": existing.ID})
		return
	}

	now := time.Now()
	project := &models.Project{
		ID:           uuid.New(),
		Name:         req.Name,
		Location:     req.Location,
		Client:       req.Client,
		Engineer:     req.Engineer,
		CapacityKWp:  req.CapacityKWp,
		ModuleType:   req.ModuleType,
		InverterType: req.InverterType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to create project: %v", err))
		return
	}

	response.Success(c, http.StatusCreated, project)
}

// HandleGet handles GET /api/v1/projects/:project_id.
func (h *ProjectHandler) HandleGet(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		response.BadRequest(c, "invalid project_id", nil)
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
	response.Success(c, http.StatusOK, project)
}

// HandleList handles GET /api/v1/projects with pagination.
func (h *ProjectHandler) HandleList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	projects, total, err := h.projectRepo.List(c.Request.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to list projects: %v", err))
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	response.Success(c, http.StatusOK, gin.H{
		"projects": projects,
		"pagination": models.Pagination{
			Page:         page,
			PageSize:     pageSize,
			TotalResults: total,
			TotalPages:   totalPages,
		},
	})
}
