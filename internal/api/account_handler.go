package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/rs/zerolog"
)

// AccountHandler handles credential store endpoints
type AccountHandler struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(repos *repository.Repositories, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		repos: repos,
		log:   log.With().Str("handler", "account").Logger(),
	}
}

// ListAccounts handles GET /v1/accounts. API tokens are redacted.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts := h.repos.Account.List()

	redacted := make([]models.Account, 0, len(accounts))
	for i := range accounts {
		redacted = append(redacted, accounts[i].Redacted())
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts": redacted,
		"count":    len(redacted),
	})
}

// CreateAccount handles POST /v1/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Domain   string `json:"domain"`
		APIToken string `json:"api_token"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Domain == "" || req.APIToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, domain and api_token are required"})
		return
	}

	account := &models.Account{
		Name:     req.Name,
		Domain:   req.Domain,
		APIToken: req.APIToken,
	}
	if err := h.repos.Account.Create(account); err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	h.log.Info().Str("account_id", account.ID).Str("domain", account.Domain).Msg("Account created")

	c.JSON(http.StatusCreated, account.Redacted())
}

// DeleteAccount handles DELETE /v1/accounts/:account_id. The account's job
// record is removed with it.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID := c.Param("account_id")

	if h.repos.Job.Get(accountID).Status.Active() {
		c.JSON(http.StatusConflict, gin.H{"error": "stop the running import before deleting the account"})
		return
	}

	if err := h.repos.Account.Delete(accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to delete account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}

	h.repos.Job.Delete(accountID)

	h.log.Info().Str("account_id", accountID).Msg("Account deleted")
	c.Status(http.StatusNoContent)
}
