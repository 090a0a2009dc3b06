package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/identity-admin-api/internal/models"
)

// accountRepo is the concrete file-backed implementation of
// AccountRepository. The account list is loaded once at startup and written
// back on every mutation.
type accountRepo struct {
	mu       sync.RWMutex
	path     string
	accounts []models.Account
}

// NewAccountRepo creates a new account repository backed by the given file
func NewAccountRepo(path string) (AccountRepository, error) {
	r := &accountRepo{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account store: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.accounts); err != nil {
			return nil, fmt.Errorf("failed to parse account store: %w", err)
		}
	}

	return r, nil
}

// List returns all stored accounts
func (r *accountRepo) List() []models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.Account{}, r.accounts...)
}

// Get retrieves an account by ID
func (r *accountRepo) Get(id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.accounts {
		if r.accounts[i].ID == id {
			account := r.accounts[i]
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

// Create stores a new account, assigning its ID and creation time
func (r *accountRepo) Create(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.ID = uuid.New().String()
	account.CreatedAt = time.Now().UTC()
	r.accounts = append(r.accounts, *account)

	return r.save()
}

// Delete removes an account by ID
func (r *accountRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.accounts {
		if r.accounts[i].ID == id {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			return r.save()
		}
	}
	return ErrNotFound
}

// Credential returns the secret credential for an account
func (r *accountRepo) Credential(id string) (models.Credential, error) {
	account, err := r.Get(id)
	if err != nil {
		return models.Credential{}, err
	}
	return account.Credential(), nil
}

// save writes the account list to disk; callers hold the write lock
func (r *accountRepo) save() error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create account store directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(r.accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode account store: %w", err)
	}

	// Tokens live in this file, keep it owner-readable only
	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write account store: %w", err)
	}
	return nil
}
