package mocks

import (
	"sync"

	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
)

// RecordingJobRepository wraps a JobRepository and records the snapshot
// produced by every merge, letting tests assert the exact publish sequence
// a run loop emitted (countdown ticks, progress steps, status flips).
type RecordingJobRepository struct {
	mu        sync.Mutex
	inner     repository.JobRepository
	Snapshots []models.JobRecord
}

// NewRecordingJobRepository creates a recording wrapper around inner
func NewRecordingJobRepository(inner repository.JobRepository) *RecordingJobRepository {
	return &RecordingJobRepository{inner: inner}
}

func (r *RecordingJobRepository) Get(accountID string) models.JobRecord {
	return r.inner.Get(accountID)
}

func (r *RecordingJobRepository) Merge(accountID string, update models.JobUpdate) models.JobRecord {
	snapshot := r.inner.Merge(accountID, update)
	r.mu.Lock()
	r.Snapshots = append(r.Snapshots, snapshot)
	r.mu.Unlock()
	return snapshot
}

func (r *RecordingJobRepository) Reset(accountID string) models.JobRecord {
	return r.inner.Reset(accountID)
}

func (r *RecordingJobRepository) Delete(accountID string) {
	r.inner.Delete(accountID)
}

// History returns a copy of the recorded snapshots in publish order
func (r *RecordingJobRepository) History() []models.JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.JobRecord{}, r.Snapshots...)
}
