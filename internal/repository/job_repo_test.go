package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/identity-admin-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRepo_GetDefaultsToIdle(t *testing.T) {
	repo := NewJobRepo()

	job := repo.Get("acc-1")

	assert.Equal(t, "acc-1", job.AccountID)
	assert.Equal(t, models.JobStatusIdle, job.Status)
	assert.Empty(t, job.Results)
	assert.Zero(t, job.Progress)
}

func TestJobRepo_MergePreservesUnsetFields(t *testing.T) {
	repo := NewJobRepo()

	input := "a@x.com,A\nb@x.com,B"
	repo.Merge("acc-1", models.JobUpdate{PendingInput: &input})

	running := models.JobStatusRunning
	repo.Merge("acc-1", models.JobUpdate{Status: &running})

	job := repo.Get("acc-1")
	assert.Equal(t, models.JobStatusRunning, job.Status)
	assert.Equal(t, input, job.Settings.PendingInput, "merge must not clobber settings")
}

func TestJobRepo_AppendResultAndCounters(t *testing.T) {
	repo := NewJobRepo()

	for i := 1; i <= 3; i++ {
		result := models.OperationResult{
			Email:  fmt.Sprintf("user%d@x.com", i),
			Status: models.OperationSuccess,
		}
		success := i
		fail := 0
		progress := float64(i) / 3 * 100
		repo.Merge("acc-1", models.JobUpdate{
			AppendResult: &result,
			SuccessCount: &success,
			FailCount:    &fail,
			Progress:     &progress,
		})
	}

	job := repo.Get("acc-1")
	require.Len(t, job.Results, 3)
	assert.Equal(t, "user1@x.com", job.Results[0].Email)
	assert.Equal(t, "user3@x.com", job.Results[2].Email)
	assert.Equal(t, 3, job.SuccessCount)
	assert.Equal(t, job.SuccessCount+job.FailCount, len(job.Results))
	assert.InDelta(t, 100, job.Progress, 0.001)
}

func TestJobRepo_SnapshotIsolation(t *testing.T) {
	repo := NewJobRepo()

	result := models.OperationResult{Email: "a@x.com", Status: models.OperationSuccess}
	repo.Merge("acc-1", models.JobUpdate{AppendResult: &result})

	snapshot := repo.Get("acc-1")
	snapshot.Results[0].Email = "tampered@x.com"
	snapshot.Results = append(snapshot.Results, models.OperationResult{Email: "extra@x.com"})

	fresh := repo.Get("acc-1")
	require.Len(t, fresh.Results, 1)
	assert.Equal(t, "a@x.com", fresh.Results[0].Email, "snapshot mutation must not leak into the store")
}

func TestJobRepo_Reset(t *testing.T) {
	repo := NewJobRepo()

	input := "a@x.com"
	completed := models.JobStatusCompleted
	progress := 100.0
	result := models.OperationResult{Email: "a@x.com", Status: models.OperationSuccess}
	repo.Merge("acc-1", models.JobUpdate{
		Status:       &completed,
		PendingInput: &input,
		AppendResult: &result,
		Progress:     &progress,
	})

	job := repo.Reset("acc-1")

	assert.Equal(t, models.JobStatusIdle, job.Status)
	assert.Empty(t, job.Results)
	assert.Zero(t, job.Progress)
	assert.Empty(t, job.Settings.PendingInput, "reset clears configuration fields too")
}

func TestJobRepo_Delete(t *testing.T) {
	repo := NewJobRepo()

	running := models.JobStatusRunning
	repo.Merge("acc-1", models.JobUpdate{Status: &running})
	repo.Delete("acc-1")

	job := repo.Get("acc-1")
	assert.Equal(t, models.JobStatusIdle, job.Status)
}

func TestJobRepo_AccountIsolation(t *testing.T) {
	repo := NewJobRepo()

	running := models.JobStatusRunning
	repo.Merge("acc-1", models.JobUpdate{Status: &running})

	assert.Equal(t, models.JobStatusRunning, repo.Get("acc-1").Status)
	assert.Equal(t, models.JobStatusIdle, repo.Get("acc-2").Status)
}

func TestJobRepo_ConcurrentReadersDuringWrites(t *testing.T) {
	repo := NewJobRepo()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			result := models.OperationResult{Email: "a@x.com", Status: models.OperationSuccess}
			success := i + 1
			repo.Merge("acc-1", models.JobUpdate{AppendResult: &result, SuccessCount: &success})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			job := repo.Get("acc-1")
			// Readers must never see counters out of step with the log
			assert.Equal(t, job.SuccessCount, len(job.Results))
		}
	}()

	wg.Wait()
}
