package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads credentials from ENGAGELENS_IG_USERNAME and
// ENGAGELENS_IG_PASSWORD. It cannot store or delete.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed read-only store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUser := os.Getenv("ENGAGELENS_IG_USERNAME")
	envPass := os.Getenv("ENGAGELENS_IG_PASSWORD")
	if envUser == "" || envPass == "" {
		return nil, ErrCredentialsNotFound
	}
	// The environment holds a single account; an explicit username must match.
	if username != "" && username != envUser {
		return nil, ErrCredentialsNotFound
	}
	return &Account{
		Username:     envUser,
		Password:     envPass,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	account, err := e.Retrieve(username)
	return err == nil && account != nil
}
