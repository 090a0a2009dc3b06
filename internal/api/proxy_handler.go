package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/service"
	"github.com/rs/zerolog"
)

// ProxyHandler handles the one-shot pass-through endpoints
type ProxyHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewProxyHandler creates a new ProxyHandler
func NewProxyHandler(services *service.Services, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		services: services,
		log:      log.With().Str("handler", "proxy").Logger(),
	}
}

// SendPasswordResets handles POST /v1/accounts/:account_id/password-resets
func (h *ProxyHandler) SendPasswordResets(c *gin.Context) {
	accountID := c.Param("account_id")

	var req struct {
		Emails []string `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Emails) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emails is required"})
		return
	}

	results, err := h.services.Proxy.SendPasswordResets(c.Request.Context(), accountID, req.Emails)
	if err != nil {
		h.respondError(c, accountID, err, "Failed to send password resets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"count":      len(results),
		"results":    results,
	})
}

// GetEmailTemplate handles GET /v1/accounts/:account_id/email-templates/:template
func (h *ProxyHandler) GetEmailTemplate(c *gin.Context) {
	accountID := c.Param("account_id")
	template := c.Param("template")

	body, err := h.services.Proxy.GetEmailTemplate(c.Request.Context(), accountID, template)
	if err != nil {
		h.respondError(c, accountID, err, "Failed to get email template")
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

// UpdateEmailTemplate handles PUT /v1/accounts/:account_id/email-templates/:template
func (h *ProxyHandler) UpdateEmailTemplate(c *gin.Context) {
	accountID := c.Param("account_id")
	template := c.Param("template")

	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.services.Proxy.UpdateEmailTemplate(c.Request.Context(), accountID, template, body); err != nil {
		h.respondError(c, accountID, err, "Failed to update email template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "template": template, "message": "template updated"})
}

func (h *ProxyHandler) respondError(c *gin.Context, accountID string, err error, logMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	h.log.Error().Err(err).Str("account_id", accountID).Msg(logMsg)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
