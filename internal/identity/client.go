package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/identity-admin-api/internal/models"
	"github.com/rs/zerolog"
)

// Client is the boundary to the external identity provider's REST API.
// Request and response shapes are provider-defined and passed through with
// minimal transformation.
type Client interface {
	// Submit issues exactly one outbound call creating or inviting a user.
	// Ordinary remote failures (4xx/5xx) and transport errors are mapped
	// into a Failure result, never returned as an error.
	Submit(ctx context.Context, cred models.Credential, record models.UserRecord, sendInvites bool) models.OperationResult

	// SendPasswordReset triggers a provider password-reset email
	SendPasswordReset(ctx context.Context, cred models.Credential, email string) error

	// GetEmailTemplate fetches a provider email template as opaque JSON
	GetEmailTemplate(ctx context.Context, cred models.Credential, name string) (json.RawMessage, error)

	// UpdateEmailTemplate replaces a provider email template
	UpdateEmailTemplate(ctx context.Context, cred models.Credential, name string, body json.RawMessage) error
}

// client is the concrete HTTP implementation of Client
type client struct {
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a new identity provider client
func NewClient(timeout time.Duration, log zerolog.Logger) Client {
	return &client{
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("client", "identity").Logger(),
	}
}

// createUserPayload is the outbound body for both create and invite calls
type createUserPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
	Password  string `json:"password,omitempty"`
}

// userResponse is the subset of the provider response we read back
type userResponse struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

// Submit creates or invites one user on the provider
func (c *client) Submit(ctx context.Context, cred models.Credential, record models.UserRecord, sendInvites bool) models.OperationResult {
	path := "/api/v2/users"
	payload := createUserPayload{
		Email:     record.Email,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Password:  record.Password,
	}
	if sendInvites {
		// Invitations carry no password; the provider emails a setup link
		path = "/api/v2/invitations"
		payload.Password = ""
	}

	body, status, err := c.do(ctx, cred, http.MethodPost, path, payload)
	if err != nil {
		c.log.Warn().Err(err).Str("email", record.Email).Msg("Remote call failed")
		return models.OperationResult{
			Email:   record.Email,
			Status:  models.OperationFailure,
			Message: err.Error(),
		}
	}

	if status >= 400 {
		return models.OperationResult{
			Email:   record.Email,
			Status:  models.OperationFailure,
			Message: providerMessage(body, status),
		}
	}

	var resp userResponse
	_ = json.Unmarshal(body, &resp)
	externalID := resp.UserID
	if externalID == "" {
		externalID = resp.ID
	}

	return models.OperationResult{
		Email:      record.Email,
		Status:     models.OperationSuccess,
		Message:    "created",
		ExternalID: externalID,
	}
}

// SendPasswordReset triggers a password-reset email for one user
func (c *client) SendPasswordReset(ctx context.Context, cred models.Credential, email string) error {
	body, status, err := c.do(ctx, cred, http.MethodPost, "/api/v2/password-resets", map[string]string{"email": email})
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("password reset rejected: %s", providerMessage(body, status))
	}
	return nil
}

// GetEmailTemplate fetches a template by name
func (c *client) GetEmailTemplate(ctx context.Context, cred models.Credential, name string) (json.RawMessage, error) {
	body, status, err := c.do(ctx, cred, http.MethodGet, "/api/v2/email-templates/"+name, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("template fetch rejected: %s", providerMessage(body, status))
	}
	return json.RawMessage(body), nil
}

// UpdateEmailTemplate replaces a template by name
func (c *client) UpdateEmailTemplate(ctx context.Context, cred models.Credential, name string, tmpl json.RawMessage) error {
	body, status, err := c.do(ctx, cred, http.MethodPut, "/api/v2/email-templates/"+name, tmpl)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("template update rejected: %s", providerMessage(body, status))
	}
	return nil
}

// do issues one authenticated request and returns the raw response body
func (c *client) do(ctx context.Context, cred models.Credential, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL(cred.Domain)+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// providerError is the shape of provider error bodies; some endpoints return
// a flat message, others an error array.
type providerError struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// providerMessage flattens a provider error body to one human-readable string
func providerMessage(body []byte, status int) string {
	var pe providerError
	if err := json.Unmarshal(body, &pe); err == nil {
		if pe.Message != "" {
			return pe.Message
		}
		if len(pe.Errors) > 0 {
			parts := make([]string, 0, len(pe.Errors))
			for _, e := range pe.Errors {
				if e.Message != "" {
					parts = append(parts, e.Message)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return fmt.Sprintf("provider returned HTTP %d", status)
}

// baseURL normalizes an account domain into a request base URL
func baseURL(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://" + strings.TrimSuffix(domain, "/")
}
