package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
	"github.com/Perfect-QA/DevTinder-sub000/shared/provider"
	"github.com/Perfect-QA/DevTinder-sub000/shared/security"
)

// OAuthUsecase resolves an external-provider identity to an account: exact
// external-id match first, then trusted-email match, then account creation.
// Resolution is idempotent per (provider, external id).
type OAuthUsecase interface {
	Resolve(ctx context.Context, identity *provider.Identity) (*model.Account, error)
}

var ErrInvalidOAuthProfile = errors.New("invalid oauth profile")

// emailTrustedProviders lists the providers whose identity model depends on
// a verified email address. For these, a profile without an email is
// invalid, and a matching account email is grounds for linking.
var emailTrustedProviders = map[string]bool{
	provider.GoogleName: true,
}

type oauthUsecase struct {
	accountRepo repository.AccountRepository
	now         func() time.Time
}

func NewOAuthUsecase(accountRepo repository.AccountRepository) OAuthUsecase {
	return &oauthUsecase{
		accountRepo: accountRepo,
		now:         time.Now,
	}
}

func (u *oauthUsecase) Resolve(ctx context.Context, identity *provider.Identity) (*model.Account, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}

	account, err := u.accountRepo.GetAccountByExternalID(ctx, identity.Provider, identity.Profile.ExternalID)
	if err == nil {
		return u.refreshProviderTokens(ctx, account, identity)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if emailTrustedProviders[identity.Provider] {
		account, err := u.accountRepo.GetAccountByEmail(ctx, FoldEmail(identity.Profile.Email))
		if err == nil {
			return u.linkProvider(ctx, account, identity)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}

	return u.createAccount(ctx, identity)
}

// refreshProviderTokens handles a returning provider login: the stored
// provider tokens are replaced and nothing else changes.
func (u *oauthUsecase) refreshProviderTokens(
	ctx context.Context,
	account *model.Account,
	identity *provider.Identity,
) (*model.Account, error) {
	err := u.accountRepo.UpdateExternalIdentityTokens(
		ctx,
		account.ID.Hex(),
		identity.Provider,
		identity.AccessToken,
		identity.RefreshToken,
	)
	if err != nil {
		return nil, err
	}

	if ext, ok := account.ExternalIdentities[identity.Provider]; ok {
		ext.AccessToken = identity.AccessToken
		ext.RefreshToken = identity.RefreshToken
		account.ExternalIdentities[identity.Provider] = ext
	}

	return account, nil
}

// linkProvider attaches the provider to an existing account found through a
// trusted email match.
func (u *oauthUsecase) linkProvider(
	ctx context.Context,
	account *model.Account,
	identity *provider.Identity,
) (*model.Account, error) {
	ext := model.ExternalIdentity{
		ExternalID:   identity.Profile.ExternalID,
		Email:        identity.Profile.Email,
		AccessToken:  identity.AccessToken,
		RefreshToken: identity.RefreshToken,
		LinkedAt:     u.now(),
	}

	markVerified := identity.Profile.EmailVerified

	err := u.accountRepo.LinkExternalIdentity(ctx, account.ID.Hex(), identity.Provider, ext, markVerified)
	if err != nil {
		return nil, err
	}

	if account.ExternalIdentities == nil {
		account.ExternalIdentities = make(map[string]model.ExternalIdentity)
	}
	account.ExternalIdentities[identity.Provider] = ext
	if !account.HasLinkedProvider(identity.Provider) {
		account.LinkedProviders = append(account.LinkedProviders, identity.Provider)
	}
	if markVerified {
		account.EmailVerified = true
	}

	return account, nil
}

func (u *oauthUsecase) createAccount(ctx context.Context, identity *provider.Identity) (*model.Account, error) {
	// The random hash keeps the "password hash present" invariant intact;
	// a direct-password login against such an account is answered with a
	// use-provider-login message, not a hash mismatch.
	passwordHash, err := security.RandomPasswordHash()
	if err != nil {
		return nil, err
	}

	email := FoldEmail(identity.Profile.Email)
	if email == "" {
		// Providers without an email-based identity model still need a
		// unique account email for the index; the synthesized address is
		// never routable.
		email = fmt.Sprintf("%s-%s@accounts.noreply.invalid", identity.Provider, identity.Profile.ExternalID)
	}

	account := &model.Account{
		Email:                email,
		EmailVerified:        identity.Profile.EmailVerified,
		PasswordHash:         passwordHash,
		PasswordlessProvider: true,
		Role:                 "user",
		LinkedProviders:      []string{identity.Provider},
		ExternalIdentities: map[string]model.ExternalIdentity{
			identity.Provider: {
				ExternalID:   identity.Profile.ExternalID,
				Email:        identity.Profile.Email,
				AccessToken:  identity.AccessToken,
				RefreshToken: identity.RefreshToken,
				LinkedAt:     u.now(),
			},
		},
	}

	created, err := u.accountRepo.CreateAccount(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent resolve for the same profile won the insert;
			// fall through to the account it created.
			existing, lookupErr := u.accountRepo.GetAccountByExternalID(ctx, identity.Provider, identity.Profile.ExternalID)
			if lookupErr != nil {
				return nil, err
			}
			return existing, nil
		}

		return nil, err
	}

	return created, nil
}

func validateIdentity(identity *provider.Identity) error {
	if identity == nil || identity.Provider == "" || identity.Profile.ExternalID == "" {
		return ErrInvalidOAuthProfile
	}

	if emailTrustedProviders[identity.Provider] && identity.Profile.Email == "" {
		return ErrInvalidOAuthProfile
	}

	return nil
}
