package service

import (
	"fmt"

	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/validation"
	"github.com/rs/zerolog"
)

// reportService is the concrete implementation of ReportService. It derives
// read-only views from job store snapshots and has no side effects.
type reportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newReportService creates a new ReportService
func newReportService(repos *repository.Repositories, log zerolog.Logger) *reportService {
	return &reportService{
		repos: repos,
		log:   log.With().Str("service", "report").Logger(),
	}
}

// TotalRecords returns the number of valid records parsed from the job's
// pending input text.
func (s *reportService) TotalRecords(accountID string) int {
	job := s.repos.Job.Get(accountID)
	return validation.CountRecords(job.Settings.PendingInput)
}

// Results returns the job's result log filtered by outcome
func (s *reportService) Results(accountID string, outcome string) ([]models.OperationResult, error) {
	job := s.repos.Job.Get(accountID)

	switch outcome {
	case "", "all":
		return job.Results, nil
	case "success":
		return filterResults(job.Results, models.OperationSuccess), nil
	case "failure":
		return filterResults(job.Results, models.OperationFailure), nil
	default:
		return nil, ErrUnknownOutcome
	}
}

// ProgressLine returns a human-readable progress string: the countdown to
// the next record during an active delay, the percentage otherwise.
func (s *reportService) ProgressLine(accountID string) string {
	job := s.repos.Job.Get(accountID)

	if job.Countdown > 0 && job.NextPendingEmail != "" {
		return fmt.Sprintf("%ds until next: %s", job.Countdown, job.NextPendingEmail)
	}
	return fmt.Sprintf("%.0f%%", job.Progress)
}

func filterResults(results []models.OperationResult, status models.OperationStatus) []models.OperationResult {
	filtered := make([]models.OperationResult, 0, len(results))
	for _, r := range results {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
