package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
	"github.com/Perfect-QA/DevTinder-sub000/shared/security"
)

// AuthUsecase verifies credentials against accounts and applies the
// progressive lockout policy.
type AuthUsecase interface {
	Authenticate(ctx context.Context, params AuthenticateParams) (*model.Account, error)
	Register(ctx context.Context, params RegisterParams) (*model.Account, error)
}

// AuthenticateParams defines the parameters for a credential login.
type AuthenticateParams struct {
	Email    string
	Password string
	SourceIP string
}

// RegisterParams defines the parameters for account registration.
type RegisterParams struct {
	Email    string
	Password string
}

var (
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")

	// ErrProviderLoginRequired is returned for accounts created through an
	// external provider that have never set a password of their own.
	ErrProviderLoginRequired = errors.New("this account signs in with an external provider")
)

// AccountLockedError reports a login attempt against a locked account and
// carries how long the lock has left.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.Minutes())
}

// Minutes returns the remaining lockout rounded up to whole minutes, never
// less than one.
func (e *AccountLockedError) Minutes() int {
	minutes := int((e.Remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	return minutes
}

type authUsecase struct {
	accountRepo    repository.AccountRepository
	authServiceCfg *config.AuthServiceConfig
	now            func() time.Time
}

func NewAuthUsecase(
	accountRepo repository.AccountRepository,
	authServiceCfg *config.AuthServiceConfig,
) AuthUsecase {
	return &authUsecase{
		accountRepo:    accountRepo,
		authServiceCfg: authServiceCfg,
		now:            time.Now,
	}
}

// Authenticate verifies an email/password pair. Whether the email exists is
// never revealed: an unknown email and a wrong password both return
// ErrInvalidCredentials.
func (u *authUsecase) Authenticate(ctx context.Context, params AuthenticateParams) (*model.Account, error) {
	account, err := u.accountRepo.GetAccountByEmail(ctx, FoldEmail(params.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	now := u.now()

	if account.IsLocked(now) {
		return nil, &AccountLockedError{Remaining: account.LockoutRemaining(now)}
	}

	// An elapsed lock clears itself on the next attempt; a correct password
	// submitted after expiry logs in immediately with no separate unlock.
	if account.LockedUntil != nil {
		if err := u.accountRepo.ClearLockout(ctx, account.ID.Hex()); err != nil {
			return nil, err
		}
		account.LockedUntil = nil
		account.FailedLoginAttempts = 0
	}

	if account.PasswordlessProvider {
		return nil, ErrProviderLoginRequired
	}

	if ok, err := security.VerifyPassword(params.Password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, u.recordFailure(ctx, account, now)
	}

	if err := u.accountRepo.RecordSuccessfulLogin(ctx, account.ID.Hex(), params.SourceIP, now); err != nil {
		return nil, err
	}

	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LoginCount++
	account.LastLogin = &now
	account.LastLoginIP = params.SourceIP

	return account, nil
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.Account, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		Email:        FoldEmail(params.Email),
		PasswordHash: passwordHash,
		Role:         "user",
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAccountAlreadyExists
		}

		return nil, err
	}

	return account, nil
}

// recordFailure counts a wrong password atomically and locks the account
// when the counter reaches the configured threshold.
func (u *authUsecase) recordFailure(ctx context.Context, account *model.Account, now time.Time) error {
	attempts, err := u.accountRepo.RecordFailedLogin(ctx, account.ID.Hex())
	if err != nil {
		return err
	}

	if attempts < u.authServiceCfg.Lockout.MaxFailedAttempts {
		return ErrInvalidCredentials
	}

	until := now.Add(u.authServiceCfg.Lockout.Duration)
	if err := u.accountRepo.LockAccount(ctx, account.ID.Hex(), until); err != nil {
		return err
	}

	return &AccountLockedError{Remaining: u.authServiceCfg.Lockout.Duration}
}

// FoldEmail canonicalizes an email address for storage and lookup.
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
