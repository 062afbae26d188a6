package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yalicar/string-compliance-iq/internal/api/response"
	"github.com/yalicar/string-compliance-iq/internal/config"
	"github.com/yalicar/string-compliance-iq/internal/ingest"
	"github.com/yalicar/string-compliance-iq/internal/models"
	"github.com/yalicar/string-compliance-iq/internal/repository"
)

// UploadHandler handles circuit CSV file uploads.
type UploadHandler struct {
	uploadRepo      *repository.UploadRepository
	circuitRepo     *repository.CircuitRecordRepository
	projectRepo     *repository.ProjectRepository
	idempotencyRepo *repository.IdempotencyRepository
	cfg             *config.Config
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(
	uploadRepo *repository.UploadRepository,
	circuitRepo *repository.CircuitRecordRepository,
	projectRepo *repository.ProjectRepository,
	idempotencyRepo *repository.IdempotencyRepository,
	cfg *config.Config,
) *UploadHandler {
	return &UploadHandler{
		uploadRepo:      uploadRepo,
		circuitRepo:     circuitRepo,
		projectRepo:     projectRepo,
		idempotencyRepo: idempotencyRepo,
		cfg:             cfg,
	}
}

// HandleUpload handles POST /api/v1/projects/:project_id/uploads.
func (h *UploadHandler) HandleUpload(c *gin.Context) {
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

	// Check idempotency key atomically — return 409 Conflict with existing upload
	idempotencyKey := c.GetHeader("Idempotency-Key")
	uploadID := uuid.New()
	if idempotencyKey != "" {
		claim, err := h.idempotencyRepo.Claim(c.Request.Context(), projectID, idempotencyKey, "upload", uploadID)
		if err != nil {
			response.InternalError(c, fmt.Sprintf("idempotency check failed: %v", err))
			return
		}
		if claim.AlreadyExists {
			existing, _ := h.uploadRepo.GetByID(c.Request.Context(), projectID, claim.ResourceID)
			response.Conflict(c, "duplicate upload (idempotency key match)", existing)
			return
		}
	}

	// Get file from multipart form
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field is required", nil)
		return
	}

	// Validate file type (content-type + extension)
	if file.Header.Get("Content-Type") != "text/csv" && filepath.Ext(file.Filename) != ".csv" {
		response.BadRequest(c, "file must be a CSV", nil)
		return
	}

	if file.Size > h.cfg.Upload.MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds max size of %d bytes", h.cfg.Upload.MaxFileSize), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.InternalError(c, "failed to open uploaded file")
		return
	}
	defer src.Close()

	// Save to temp directory
	if err := os.MkdirAll(h.cfg.Upload.TempDir, 0755); err != nil {
		response.InternalError(c, "failed to create temp directory")
		return
	}

	tempPath := filepath.Join(h.cfg.Upload.TempDir, uploadID.String()+".csv")
	tempFile, err := os.Create(tempPath)
	if err != nil {
		response.InternalError(c, "failed to create temp file")
		return
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, src); err != nil {
		os.Remove(tempPath)
		response.InternalError(c, "failed to save file")
		return
	}

	contentHash, err := hashFile(tempPath)
	if err != nil {
		os.Remove(tempPath)
		response.InternalError(c, "failed to hash file")
		return
	}

	// Check for duplicate content within this project — if the same file
	// was already uploaded, return the existing upload instead of creating
	// a new one.
	existing, err := h.uploadRepo.GetByContentHash(c.Request.Context(), projectID, contentHash)
	if err == nil && existing != nil {
		os.Remove(tempPath)
		response.Success(c, http.StatusOK, gin.H{
			"upload_id":         existing.ID,
			"project_id":        existing.ProjectID,
			"filename":          existing.Filename,
			"row_count":         existing.RowCount,
			"validation_status": existing.ValidationStatus,
			"content_hash":      existing.ContentHash,
			"created_at":        existing.CreatedAt,
			"duplicate":         true,
			"message":           "File already uploaded; returning existing upload.",
		})
		return
	}

	now := time.Now()
	upload := &models.Upload{
		ID:               uploadID,
		ProjectID:        projectID,
		Filename:         file.Filename,
		FileSize:         file.Size,
		Status:           "pending",
		ValidationStatus: "pending",
		RowCount:         0,
		Warnings:         json.RawMessage("[]"),
		Errors:           json.RawMessage("[]"),
		ContentHash:      &contentHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.uploadRepo.Create(c.Request.Context(), upload); err != nil {
		os.Remove(tempPath)
		response.InternalError(c, fmt.Sprintf("failed to create upload record: %v", err))
		return
	}

	// Reopen file for parsing
	csvFile, err := os.Open(tempPath)
	if err != nil {
		response.InternalError(c, "failed to reopen file for parsing")
		return
	}
	defer csvFile.Close()

	rows, parseWarnings, err := ingest.Parse(csvFile)
	if err != nil {
		os.Remove(tempPath)
		upload.ValidationStatus = "invalid"
		upload.UpdatedAt = time.Now()
		_ = h.uploadRepo.Update(c.Request.Context(), upload)
		response.BadRequest(c, fmt.Sprintf("CSV validation failed: %v", err), nil)
		return
	}

	warningsJSON, _ := json.Marshal(parseWarnings)
	upload.Warnings = warningsJSON

	records := make([]models.CircuitRecord, len(rows))
	for i, row := range rows {
		records[i] = models.CircuitRecord{
			ID:         uuid.New(),
			UploadID:   uploadID,
			ProjectID:  projectID,
			StringID:   row.StringID,
			LengthPosM: row.LengthPosM,
			LengthNegM: row.LengthNegM,
			RawData:    row.Raw,
			CreatedAt:  now,
		}
	}

	if err := h.circuitRepo.BulkInsert(c.Request.Context(), records); err != nil {
		os.Remove(tempPath)
		upload.ValidationStatus = "invalid"
		upload.UpdatedAt = time.Now()
		_ = h.uploadRepo.Update(c.Request.Context(), upload)
		response.InternalError(c, fmt.Sprintf("failed to insert circuit records: %v", err))
		return
	}

	upload.ValidationStatus = "valid"
	upload.Status = "completed"
	upload.RowCount = len(records)
	upload.UpdatedAt = time.Now()

	if err := h.uploadRepo.Update(c.Request.Context(), upload); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to update upload: %v", err))
		return
	}

	os.Remove(tempPath)

	response.Success(c, http.StatusCreated, gin.H{
		"upload_id":           upload.ID,
		"project_id":          upload.ProjectID,
		"filename":            upload.Filename,
		"row_count":           upload.RowCount,
		"validation_status":   upload.ValidationStatus,
		"validation_warnings": parseWarnings,
		"created_at":          upload.CreatedAt,
	})
}

// HandleGetUpload handles GET /api/v1/projects/:project_id/uploads/:upload_id.
func (h *UploadHandler) HandleGetUpload(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		response.BadRequest(c, "invalid project_id", nil)
		return
	}
	uploadID, err := uuid.Parse(c.Param("upload_id"))
	if err != nil {
		response.BadRequest(c, "invalid upload_id", nil)
		return
	}

	upload, err := h.uploadRepo.GetByID(c.Request.Context(), projectID, uploadID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to load upload: %v", err))
		return
	}
	if upload == nil {
		response.NotFound(c, "upload not found")
		return
	}
	response.Success(c, http.StatusOK, upload)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
