package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/identity-admin-api/internal/models"
)

// MockIdentityClient is a mock implementation of identity.Client
type MockIdentityClient struct {
	mu sync.Mutex

	// Submitted records every record passed to Submit, in call order
	Submitted []models.UserRecord

	// InviteFlags records the sendInvites argument per Submit call
	InviteFlags []bool

	// FailEmails maps email -> failure message for simulated remote failures
	FailEmails map[string]string

	// SubmitDelay simulates remote round-trip latency
	SubmitDelay time.Duration

	// OnSubmit, when set, is invoked before each Submit with the zero-based
	// call index; tests use it to pause or stop a job mid-run.
	OnSubmit func(call int)

	// ResetEmails records every SendPasswordReset call
	ResetEmails []string

	// ResetErr, when set, fails every SendPasswordReset call
	ResetErr error

	// Templates backs the email-template pass-through
	Templates map[string]json.RawMessage
}

// NewMockIdentityClient creates a new mock identity client
func NewMockIdentityClient() *MockIdentityClient {
	return &MockIdentityClient{
		FailEmails: make(map[string]string),
		Templates:  make(map[string]json.RawMessage),
	}
}

func (m *MockIdentityClient) Submit(ctx context.Context, cred models.Credential, record models.UserRecord, sendInvites bool) models.OperationResult {
	m.mu.Lock()
	call := len(m.Submitted)
	m.Submitted = append(m.Submitted, record)
	m.InviteFlags = append(m.InviteFlags, sendInvites)
	hook := m.OnSubmit
	failMsg, fail := m.FailEmails[record.Email]
	delay := m.SubmitDelay
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		return models.OperationResult{
			Email:   record.Email,
			Status:  models.OperationFailure,
			Message: failMsg,
		}
	}
	return models.OperationResult{
		Email:      record.Email,
		Status:     models.OperationSuccess,
		Message:    "created",
		ExternalID: fmt.Sprintf("usr_%d", call+1),
	}
}

func (m *MockIdentityClient) SendPasswordReset(ctx context.Context, cred models.Credential, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetEmails = append(m.ResetEmails, email)
	return m.ResetErr
}

func (m *MockIdentityClient) GetEmailTemplate(ctx context.Context, cred models.Credential, name string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tmpl, ok := m.Templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, nil
}

func (m *MockIdentityClient) UpdateEmailTemplate(ctx context.Context, cred models.Credential, name string, body json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Templates[name] = body
	return nil
}

// SubmitCount returns the number of Submit calls so far
func (m *MockIdentityClient) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

// SubmittedEmails returns the emails submitted so far, in call order
func (m *MockIdentityClient) SubmittedEmails() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	emails := make([]string, 0, len(m.Submitted))
	for _, r := range m.Submitted {
		emails = append(emails, r.Email)
	}
	return emails
}
