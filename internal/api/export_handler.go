package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles result-log export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// ExportResults handles GET /v1/accounts/:account_id/import/results?outcome=&format=
func (h *ExportHandler) ExportResults(c *gin.Context) {
	accountID := c.Param("account_id")

	outcome := c.Query("outcome")
	results, err := h.services.Report.Results(accountID, outcome)
	if err != nil {
		if errors.Is(err, service.ErrUnknownOutcome) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to get results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get results"})
		return
	}

	format := c.Query("format")
	if format == "" {
		format = "json"
	}

	if format == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=import_results_%s.csv", accountID))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"email", "status", "message", "external_id"})
		for _, r := range results {
			writer.Write([]string{r.Email, string(r.Status), r.Message, r.ExternalID})
		}
		writer.Flush()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"count":      len(results),
		"results":    results,
	})
}
