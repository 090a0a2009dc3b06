package service

import (
	"context"
	"encoding/json"

	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/identity"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/rs/zerolog"
)

// proxyService is the concrete implementation of ProxyService: it looks up
// the account's credential and relays the call. One-shot operations with
// no pause/resume/cancel semantics.
type proxyService struct {
	repos  *repository.Repositories
	client identity.Client
	cfg    *config.Config
	log    zerolog.Logger
}

// newProxyService creates a new ProxyService
func newProxyService(repos *repository.Repositories, client identity.Client, cfg *config.Config, log zerolog.Logger) *proxyService {
	return &proxyService{
		repos:  repos,
		client: client,
		cfg:    cfg,
		log:    log.With().Str("service", "proxy").Logger(),
	}
}

// SendPasswordResets triggers a reset email per address in a single pass.
// Per-address failures are captured as results and never abort the loop.
func (s *proxyService) SendPasswordResets(ctx context.Context, accountID string, emails []string) ([]models.OperationResult, error) {
	cred, err := s.repos.Account.Credential(accountID)
	if err != nil {
		return nil, err
	}

	results := make([]models.OperationResult, 0, len(emails))
	for _, email := range emails {
		result := models.OperationResult{Email: email, Status: models.OperationSuccess, Message: "reset email sent"}
		if err := s.client.SendPasswordReset(ctx, cred, email); err != nil {
			result.Status = models.OperationFailure
			result.Message = err.Error()
		}
		results = append(results, result)
	}

	s.log.Info().
		Str("account_id", accountID).
		Int("requested", len(emails)).
		Msg("Password resets dispatched")

	return results, nil
}

// GetEmailTemplate relays a template fetch for the account
func (s *proxyService) GetEmailTemplate(ctx context.Context, accountID, name string) (json.RawMessage, error) {
	cred, err := s.repos.Account.Credential(accountID)
	if err != nil {
		return nil, err
	}
	return s.client.GetEmailTemplate(ctx, cred, name)
}

// UpdateEmailTemplate relays a template update for the account
func (s *proxyService) UpdateEmailTemplate(ctx context.Context, accountID, name string, body json.RawMessage) error {
	cred, err := s.repos.Account.Credential(accountID)
	if err != nil {
		return err
	}
	return s.client.UpdateEmailTemplate(ctx, cred, name, body)
}
