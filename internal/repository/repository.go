package repository

import (
	"errors"

	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/models"
)

// ErrNotFound is returned when an account does not exist in the store
var ErrNotFound = errors.New("account not found")

// JobRepository is the single source of truth for per-account import job
// state. Reads return snapshots; writes are atomic partial merges so readers
// never observe a state that mixes fields from two different steps.
type JobRepository interface {
	// Get returns a snapshot of the account's job record, defaulting to an
	// Idle record when absent. It never fails.
	Get(accountID string) models.JobRecord

	// Merge atomically applies the supplied fields, preserving the rest,
	// and returns the resulting snapshot.
	Merge(accountID string, update models.JobUpdate) models.JobRecord

	// Reset restores the account's record to its default Idle state,
	// including configuration fields.
	Reset(accountID string) models.JobRecord

	// Delete removes the record entirely, alongside its owning account
	Delete(accountID string)
}

// AccountRepository is the credential store: a file-backed list of identity
// provider accounts.
type AccountRepository interface {
	List() []models.Account
	Get(id string) (*models.Account, error)
	Create(account *models.Account) error
	Delete(id string) error

	// Credential returns the secret for an account, or ErrNotFound
	Credential(id string) (models.Credential, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Job     JobRepository
	Account AccountRepository
}

// New creates all repositories
func New(cfg *config.Config) (*Repositories, error) {
	accountRepo, err := NewAccountRepo(cfg.Accounts.FilePath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Job:     NewJobRepo(),
		Account: accountRepo,
	}, nil
}
