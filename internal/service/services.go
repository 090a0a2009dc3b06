package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/identity"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/rs/zerolog"
)

// Structural and validation errors surfaced to callers. They never corrupt
// existing job state.
var (
	ErrJobActive      = errors.New("an import job is already running or paused for this account")
	ErrJobNotRunning  = errors.New("import job is not running")
	ErrJobNotPaused   = errors.New("import job is not paused")
	ErrJobNotActive   = errors.New("import job is not running or paused")
	ErrNoValidRecords = errors.New("no valid user records in input")
	ErrInvalidDelay   = errors.New("delay must be a non-negative number of seconds")
	ErrUnknownOutcome = errors.New("outcome must be one of: all, success, failure")
)

// JobService drives per-account bulk import runs: lifecycle transitions,
// pacing, statistics accumulation and live progress publishing.
type JobService interface {
	Start(accountID string, req *models.StartImportRequest) error
	Pause(accountID string) error
	Resume(accountID string) error
	Stop(accountID string) error
	Clear(accountID string) error
	UpdateSettings(accountID string, update *models.SettingsUpdate) error
	Snapshot(accountID string) models.JobRecord
	Shutdown()
}

// ReportService exposes read-only derived views over job state
type ReportService interface {
	TotalRecords(accountID string) int
	Results(accountID string, outcome string) ([]models.OperationResult, error)
	ProgressLine(accountID string) string
}

// ProxyService covers the one-shot pass-through operations against the
// identity provider: password resets and email template editing.
type ProxyService interface {
	SendPasswordResets(ctx context.Context, accountID string, emails []string) ([]models.OperationResult, error)
	GetEmailTemplate(ctx context.Context, accountID, name string) (json.RawMessage, error)
	UpdateEmailTemplate(ctx context.Context, accountID, name string, body json.RawMessage) error
}

// Services holds all service interfaces
type Services struct {
	Job    JobService
	Report ReportService
	Proxy  ProxyService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, client identity.Client, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Job:    newJobService(repos, client, cfg, log),
		Report: newReportService(repos, log),
		Proxy:  newProxyService(repos, client, cfg, log),
	}
}
