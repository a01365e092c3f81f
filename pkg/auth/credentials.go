// Package auth stores and resolves provider credentials outside the config
// file, so deployments can keep the password out of YAML.
package auth

import (
	"errors"
	"time"
)

var (
	// ErrCredentialsNotFound means no store holds credentials for the account.
	ErrCredentialsNotFound = errors.New("credentials not found")
	// ErrInvalidCredentials means the account record is incomplete.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable means the store cannot perform the operation.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Account holds one provider login.
type Account struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore stores and retrieves provider accounts.
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager resolves credentials through a chain of stores: system keyring
// first, environment variables as the fallback.
type Manager struct {
	stores []CredentialStore
}

// NewManager builds the default store chain. Keyring availability is probed
// once; if the system has no usable keychain only the environment store
// remains.
func NewManager() *Manager {
	var stores []CredentialStore
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	stores = append(stores, NewEnvironmentStore())
	return &Manager{stores: stores}
}

// NewManagerWithStores builds a manager over an explicit chain.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the account in the first store that accepts it.
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Username == "" || account.Password == "" {
		return ErrInvalidCredentials
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrStoreUnavailable
}

// Retrieve returns the account from the first store that has it.
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Delete removes the account from every store that has it.
func (m *Manager) Delete(username string) error {
	deleted := false
	for _, store := range m.stores {
		if store.Exists(username) {
			if err := store.Delete(username); err == nil {
				deleted = true
			}
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// Exists reports whether any store holds credentials for the username.
func (m *Manager) Exists(username string) bool {
	for _, store := range m.stores {
		if store.Exists(username) {
			return true
		}
	}
	return false
}
