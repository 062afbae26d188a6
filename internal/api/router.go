package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/api/handlers"
	"github.com/yalicar/string-compliance-iq/internal/api/middleware"
	"github.com/yalicar/string-compliance-iq/internal/calcsvc"
	"github.com/yalicar/string-compliance-iq/internal/compliance"
	"github.com/yalicar/string-compliance-iq/internal/config"
	"github.com/yalicar/string-compliance-iq/internal/normative"
	"github.com/yalicar/string-compliance-iq/internal/report"
	"github.com/yalicar/string-compliance-iq/internal/repository"
	"github.com/yalicar/string-compliance-iq/pkg/auth"
)

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.StructuredLogging())

	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "string-compliance-iq",
		})
	})

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(pool)
	uploadRepo := repository.NewUploadRepository(pool)
	circuitRepo := repository.NewCircuitRecordRepository(pool)
	overrideRepo := repository.NewOverrideRepository(pool)
	reportMetaRepo := repository.NewReportMetaRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// Initialize services
	catalog, err := normative.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load standards catalog: %w", err)
	}
	manager := normative.NewManager(overrideRepo, catalog)

	threshold := compliance.Threshold{
		MaxVoltageDropPct: cfg.Compliance.MaxVoltageDropPct,
		WarningFraction:   cfg.Compliance.WarningFraction,
	}
	calcClient := calcsvc.NewClient(cfg.CalcSvc.BaseURL, cfg.CalcSvc.Timeout, slog.Default())
	state := calcsvc.NewResultState()
	pipeline := calcsvc.NewPipeline(calcClient, manager, state, threshold)

	synthesizer := report.NewSynthesizer(slog.Default())
	renderClient := report.NewRenderClient(cfg.Report.RenderURL, cfg.Report.Timeout, slog.Default())

	// Initialize handlers
	projectHandler := handlers.NewProjectHandler(projectRepo)
	uploadHandler := handlers.NewUploadHandler(uploadRepo, circuitRepo, projectRepo, idempotencyRepo, cfg)
	calcHandler := handlers.NewCalculationHandler(pipeline, state, projectRepo)
	normativeHandler := handlers.NewNormativeHandler(manager, catalog)
	reportHandler := handlers.NewReportHandler(synthesizer, renderClient, state, projectRepo, reportMetaRepo)

	// API v1 routes (authenticated)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		readRoles := middleware.RequireRole(auth.RoleAdmin, auth.RoleEngineer, auth.RoleViewer)
		writeRoles := middleware.RequireRole(auth.RoleAdmin, auth.RoleEngineer)

		// Standards catalog — all authenticated roles
		v1.GET("/normative/standards", readRoles, normativeHandler.HandleListStandards)

		// Projects
		v1.POST("/projects", writeRoles, projectHandler.HandleCreate)
		v1.GET("/projects", readRoles, projectHandler.HandleList)
		v1.GET("/projects/:project_id", readRoles, projectHandler.HandleGet)

		// Circuit CSV uploads
		v1.POST("/projects/:project_id/uploads", writeRoles, uploadHandler.HandleUpload)
		v1.GET("/projects/:project_id/uploads/:upload_id", readRoles, uploadHandler.HandleGetUpload)

		// Calculations and results
		v1.POST("/projects/:project_id/stages/:stage/calculations/:standard", writeRoles, calcHandler.HandleCalculate)
		v1.GET("/projects/:project_id/stages/:stage/results", readRoles, calcHandler.HandleGetResults)
		v1.GET("/projects/:project_id/stages/:stage/results/over-limit", readRoles, calcHandler.HandleGetOverLimit)

		// Normative overrides
		v1.GET("/projects/:project_id/normative/status", readRoles, normativeHandler.HandleStatus)
		v1.GET("/projects/:project_id/normative/stages/:stage/parameters", readRoles, normativeHandler.HandleEffectiveParameters)
		v1.POST("/projects/:project_id/normative/stages/:stage/override", writeRoles, normativeHandler.HandleCreateOverride)
		v1.PUT("/projects/:project_id/normative/stages/:stage/override", writeRoles, normativeHandler.HandleUpdateOverride)
		v1.DELETE("/projects/:project_id/normative/stages/:stage/override", writeRoles, normativeHandler.HandleResetOverride)
		v1.POST("/projects/:project_id/normative/copy-base", writeRoles, normativeHandler.HandleCopyBaseToAllStages)

		// Reports
		v1.POST("/projects/:project_id/stages/:stage/reports/preview", readRoles, reportHandler.HandlePreview)
		v1.POST("/projects/:project_id/stages/:stage/reports/export", writeRoles, reportHandler.HandleExport)
		v1.GET("/projects/:project_id/reports", readRoles, reportHandler.HandleList)
	}

	// Token generation endpoint (dev only — generates test JWTs)
	r.POST("/dev/token", devTokenHandler(cfg))

	// Serve static demo frontend and Swagger UI
	r.Static("/static", "./static")
	r.StaticFile("/openapi.yaml", "./openapi.yaml")
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/static/index.html")
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/static/swagger.html")
	})

	return r, nil
}

// devTokenHandler returns a handler that generates test JWTs for development.
func devTokenHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "invalid request"})
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user_id"})
			return
		}
		if req.Role == "" {
			req.Role = auth.RoleAdmin
		}

		token, err := auth.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, userID, req.Role, cfg.JWT.ExpiryHours)
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to generate token"})
			return
		}

		c.JSON(200, gin.H{"token": token})
	}
}
