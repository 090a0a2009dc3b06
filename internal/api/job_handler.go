package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/service"
	"github.com/rs/zerolog"
)

// JobHandler handles bulk import job endpoints
type JobHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *JobHandler {
	return &JobHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "job").Logger(),
	}
}

// StartImport handles POST /v1/accounts/:account_id/import/start
func (h *JobHandler) StartImport(c *gin.Context) {
	accountID := c.Param("account_id")

	var req models.StartImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if int64(len(req.Users)) > h.cfg.Import.MaxInputBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user list too large"})
		return
	}

	if err := h.services.Job.Start(accountID, &req); err != nil {
		h.respondError(c, accountID, err, "Failed to start import")
		return
	}

	h.log.Info().Str("account_id", accountID).Msg("Import started")

	c.JSON(http.StatusAccepted, gin.H{
		"account_id": accountID,
		"status":     models.JobStatusRunning,
		"message":    "Import job started",
	})
}

// PauseImport handles POST /v1/accounts/:account_id/import/pause
func (h *JobHandler) PauseImport(c *gin.Context) {
	h.transition(c, h.services.Job.Pause, "Failed to pause import")
}

// ResumeImport handles POST /v1/accounts/:account_id/import/resume
func (h *JobHandler) ResumeImport(c *gin.Context) {
	h.transition(c, h.services.Job.Resume, "Failed to resume import")
}

// StopImport handles POST /v1/accounts/:account_id/import/stop
func (h *JobHandler) StopImport(c *gin.Context) {
	h.transition(c, h.services.Job.Stop, "Failed to stop import")
}

// ClearImport handles POST /v1/accounts/:account_id/import/clear
func (h *JobHandler) ClearImport(c *gin.Context) {
	h.transition(c, h.services.Job.Clear, "Failed to clear import")
}

// transition applies a lifecycle operation and returns the fresh snapshot
func (h *JobHandler) transition(c *gin.Context, op func(string) error, failMsg string) {
	accountID := c.Param("account_id")

	if err := op(accountID); err != nil {
		h.respondError(c, accountID, err, failMsg)
		return
	}

	c.JSON(http.StatusOK, h.snapshotResponse(accountID))
}

// UpdateSettings handles PATCH /v1/accounts/:account_id/import/settings
func (h *JobHandler) UpdateSettings(c *gin.Context) {
	accountID := c.Param("account_id")

	var req models.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PendingInput != nil && int64(len(*req.PendingInput)) > h.cfg.Import.MaxInputBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user list too large"})
		return
	}

	if err := h.services.Job.UpdateSettings(accountID, &req); err != nil {
		h.respondError(c, accountID, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, h.snapshotResponse(accountID))
}

// GetSnapshot handles GET /v1/accounts/:account_id/import
func (h *JobHandler) GetSnapshot(c *gin.Context) {
	accountID := c.Param("account_id")
	c.JSON(http.StatusOK, h.snapshotResponse(accountID))
}

// snapshotResponse combines the job record with its derived reporting views
func (h *JobHandler) snapshotResponse(accountID string) gin.H {
	snapshot := h.services.Job.Snapshot(accountID)
	return gin.H{
		"job":           snapshot,
		"total_records": h.services.Report.TotalRecords(accountID),
		"progress_line": h.services.Report.ProgressLine(accountID),
	}
}

// respondError maps service errors onto HTTP status codes
func (h *JobHandler) respondError(c *gin.Context, accountID string, err error, logMsg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoValidRecords),
		errors.Is(err, service.ErrInvalidDelay),
		errors.Is(err, service.ErrUnknownOutcome):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrJobActive),
		errors.Is(err, service.ErrJobNotRunning),
		errors.Is(err, service.ErrJobNotPaused),
		errors.Is(err, service.ErrJobNotActive):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("account_id", accountID).Msg(logMsg)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
