package repository

import (
	"sync"

	"github.com/identity-admin-api/internal/models"
)

// jobRepo is the concrete in-memory implementation of JobRepository. One
// record per account, created lazily. The job controller is the single
// writer per account; observers read concurrently through snapshots.
type jobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*models.JobRecord
}

// NewJobRepo creates a new in-memory job repository
func NewJobRepo() JobRepository {
	return &jobRepo{
		jobs: make(map[string]*models.JobRecord),
	}
}

// Get returns a snapshot of the account's job record
func (r *jobRepo) Get(accountID string) models.JobRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[accountID]
	if !ok {
		return models.NewJobRecord(accountID)
	}
	return snapshot(job)
}

// Merge atomically applies the supplied fields and returns the result
func (r *jobRepo) Merge(accountID string, update models.JobUpdate) models.JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[accountID]
	if !ok {
		rec := models.NewJobRecord(accountID)
		job = &rec
		r.jobs[accountID] = job
	}

	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.PendingInput != nil {
		job.Settings.PendingInput = *update.PendingInput
	}
	if update.SendInvites != nil {
		job.Settings.SendInvites = *update.SendInvites
	}
	if update.DelaySeconds != nil {
		job.Settings.DelaySeconds = *update.DelaySeconds
	}
	if update.Results != nil {
		job.Results = append([]models.OperationResult{}, (*update.Results)...)
	}
	if update.AppendResult != nil {
		job.Results = append(job.Results, *update.AppendResult)
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.SuccessCount != nil {
		job.SuccessCount = *update.SuccessCount
	}
	if update.FailCount != nil {
		job.FailCount = *update.FailCount
	}
	if update.ElapsedSeconds != nil {
		job.ElapsedSeconds = *update.ElapsedSeconds
	}
	if update.Countdown != nil {
		job.Countdown = *update.Countdown
	}
	if update.NextPendingEmail != nil {
		job.NextPendingEmail = *update.NextPendingEmail
	}

	return snapshot(job)
}

// Reset restores the default Idle record for the account
func (r *jobRepo) Reset(accountID string) models.JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.NewJobRecord(accountID)
	r.jobs[accountID] = &rec
	return snapshot(&rec)
}

// Delete removes the account's record
func (r *jobRepo) Delete(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, accountID)
}

// snapshot copies a record so readers never alias controller-owned state.
// The results slice is copied; OperationResult values are immutable.
func snapshot(job *models.JobRecord) models.JobRecord {
	out := *job
	out.Results = append([]models.OperationResult{}, job.Results...)
	return out
}
