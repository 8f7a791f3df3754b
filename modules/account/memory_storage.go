package account

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vianajose7/faaxis/pkg/credential"
)

// MemoryStorage is an in-memory Storage for tests and single-process
// development setups.
type MemoryStorage struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*Account
	byEmail map[string]int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		nextID:  1,
		byID:    make(map[int64]*Account),
		byEmail: make(map[string]int64),
	}
}

func copyAccount(a *Account) *Account {
	cp := *a
	cp.RecoveryCodeHashes = slices.Clone(a.RecoveryCodeHashes)
	return &cp
}

func (m *MemoryStorage) CreateAccount(ctx context.Context, acct *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[acct.Email]; exists {
		return ErrEmailAlreadyRegistered
	}

	acct.ID = m.nextID
	m.nextID++
	now := time.Now()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	m.byID[acct.ID] = copyAccount(acct)
	m.byEmail[acct.Email] = acct.ID
	return nil
}

func (m *MemoryStorage) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(acct), nil
}

func (m *MemoryStorage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(m.byID[id]), nil
}

func (m *MemoryStorage) UpdateCredential(ctx context.Context, id int64, cred credential.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Credential = cred
	acct.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStorage) SetEmailVerified(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.EmailVerified = true
	acct.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStorage) UpdateTOTP(ctx context.Context, id int64, enabled bool, secretEnc string, recoveryHashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.TOTPEnabled = enabled
	acct.TOTPSecretEnc = secretEnc
	acct.RecoveryCodeHashes = slices.Clone(recoveryHashes)
	acct.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStorage) ConsumeRecoveryCode(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}

	idx := slices.Index(acct.RecoveryCodeHashes, hash)
	if idx < 0 {
		return ErrRecoveryCodeInvalid
	}
	acct.RecoveryCodeHashes = slices.Delete(acct.RecoveryCodeHashes, idx, idx+1)
	acct.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStorage) DeleteAccount(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(m.byEmail, acct.Email)
	delete(m.byID, id)
	return nil
}
