// Package repositorytest provides an in-memory AccountRepository for tests.
// It mirrors the error contract of the Mongo implementation: absent
// documents surface as mongo.ErrNoDocuments and email collisions as
// duplicate-key write errors.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
)

type FakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*model.Account

	// ReplaceSessionsErr and TouchSessionErr, when set, are returned by the
	// corresponding method to exercise failure-suppression paths.
	ReplaceSessionsErr error
	TouchSessionErr    error
}

func NewFakeAccountRepository() *FakeAccountRepository {
	return &FakeAccountRepository{accounts: make(map[string]*model.Account)}
}

// Seed stores an account directly, assigning an id when absent, and returns
// the stored copy.
func (f *FakeAccountRepository) Seed(account *model.Account) *model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}

	stored := cloneAccount(account)
	f.accounts[account.ID.Hex()] = stored
	return cloneAccount(stored)
}

// Len reports how many accounts the fake holds.
func (f *FakeAccountRepository) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (f *FakeAccountRepository) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		if existing.Email == account.Email {
			return nil, duplicateKeyError()
		}
	}

	account.ID = bson.NewObjectID()
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	f.accounts[account.ID.Hex()] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (f *FakeAccountRepository) GetAccount(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return cloneAccount(account), nil
}

func (f *FakeAccountRepository) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (f *FakeAccountRepository) GetAccountByExternalID(
	_ context.Context,
	provider, externalID string,
) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		if ext, ok := account.ExternalIdentities[provider]; ok && ext.ExternalID == externalID {
			return cloneAccount(account), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (f *FakeAccountRepository) RecordFailedLogin(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}

	account.FailedLoginAttempts++
	return account.FailedLoginAttempts, nil
}

func (f *FakeAccountRepository) LockAccount(_ context.Context, id string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	if account.LockedUntil == nil || account.LockedUntil.Before(until) {
		account.LockedUntil = &until
	}
	return nil
}

func (f *FakeAccountRepository) ClearLockout(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	return nil
}

func (f *FakeAccountRepository) RecordSuccessfulLogin(_ context.Context, id, sourceIP string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LoginCount++
	lastLogin := at
	account.LastLogin = &lastLogin
	account.LastLoginIP = sourceIP
	return nil
}

func (f *FakeAccountRepository) SetRefreshToken(_ context.Context, id, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.RefreshToken = token
	account.RefreshTokenExpiresAt = &expiresAt
	return nil
}

func (f *FakeAccountRepository) SwapRefreshToken(
	_ context.Context,
	id, oldToken, newToken string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok || account.RefreshToken != oldToken {
		return mongo.ErrNoDocuments
	}

	account.RefreshToken = newToken
	account.RefreshTokenExpiresAt = &expiresAt
	return nil
}

func (f *FakeAccountRepository) ClearRefreshToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.RefreshToken = ""
	account.RefreshTokenExpiresAt = nil
	return nil
}

func (f *FakeAccountRepository) LinkExternalIdentity(
	_ context.Context,
	id, provider string,
	identity model.ExternalIdentity,
	markVerified bool,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	if account.ExternalIdentities == nil {
		account.ExternalIdentities = make(map[string]model.ExternalIdentity)
	}
	account.ExternalIdentities[provider] = identity

	if !account.HasLinkedProvider(provider) {
		account.LinkedProviders = append(account.LinkedProviders, provider)
	}
	if markVerified {
		account.EmailVerified = true
	}
	return nil
}

func (f *FakeAccountRepository) UpdateExternalIdentityTokens(
	_ context.Context,
	id, provider, accessToken, refreshToken string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	ext, ok := account.ExternalIdentities[provider]
	if !ok {
		return mongo.ErrNoDocuments
	}

	ext.AccessToken = accessToken
	ext.RefreshToken = refreshToken
	account.ExternalIdentities[provider] = ext
	return nil
}

func (f *FakeAccountRepository) AppendSession(_ context.Context, id string, session model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	if _, exists := account.SessionByID(session.SessionID); exists {
		return mongo.ErrNoDocuments
	}

	account.Sessions = append(account.Sessions, session)
	return nil
}

func (f *FakeAccountRepository) UpdateSession(
	_ context.Context,
	id, sessionID, sourceIP string,
	at time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	session, ok := account.SessionByID(sessionID)
	if !ok {
		return mongo.ErrNoDocuments
	}

	session.SourceIP = sourceIP
	session.LastActivity = at
	session.Active = true
	return nil
}

func (f *FakeAccountRepository) TouchSession(_ context.Context, id, sessionID string, at time.Time) error {
	if f.TouchSessionErr != nil {
		return f.TouchSessionErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	session, ok := account.SessionByID(sessionID)
	if !ok {
		return mongo.ErrNoDocuments
	}

	session.LastActivity = at
	return nil
}

func (f *FakeAccountRepository) RemoveSession(_ context.Context, id, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	for i := range account.Sessions {
		if account.Sessions[i].SessionID == sessionID {
			account.Sessions = append(account.Sessions[:i], account.Sessions[i+1:]...)
			return nil
		}
	}

	return mongo.ErrNoDocuments
}

func (f *FakeAccountRepository) RemoveAllSessions(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.Sessions = nil
	return nil
}

func (f *FakeAccountRepository) ReplaceSessions(_ context.Context, id string, sessions []model.Session) error {
	if f.ReplaceSessionsErr != nil {
		return f.ReplaceSessionsErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	account.Sessions = append([]model.Session(nil), sessions...)
	return nil
}

func (f *FakeAccountRepository) ListAccountsWithSessions(_ context.Context) ([]*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var accounts []*model.Account
	for _, account := range f.accounts {
		if len(account.Sessions) > 0 {
			accounts = append(accounts, cloneAccount(account))
		}
	}

	return accounts, nil
}

func cloneAccount(account *model.Account) *model.Account {
	clone := *account

	clone.Sessions = append([]model.Session(nil), account.Sessions...)
	clone.Permissions = append([]string(nil), account.Permissions...)
	clone.LinkedProviders = append([]string(nil), account.LinkedProviders...)

	if account.ExternalIdentities != nil {
		clone.ExternalIdentities = make(map[string]model.ExternalIdentity, len(account.ExternalIdentities))
		for k, v := range account.ExternalIdentities {
			clone.ExternalIdentities[k] = v
		}
	}

	if account.LockedUntil != nil {
		lockedUntil := *account.LockedUntil
		clone.LockedUntil = &lockedUntil
	}
	if account.LastLogin != nil {
		lastLogin := *account.LastLogin
		clone.LastLogin = &lastLogin
	}
	if account.RefreshTokenExpiresAt != nil {
		expiresAt := *account.RefreshTokenExpiresAt
		clone.RefreshTokenExpiresAt = &expiresAt
	}

	return &clone
}
