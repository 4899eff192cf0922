package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository/repositorytest"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
	"github.com/Perfect-QA/DevTinder-sub000/shared/provider"
)

func googleIdentity(externalID, email string) *provider.Identity {
	return &provider.Identity{
		Provider: provider.GoogleName,
		Profile: provider.Profile{
			ExternalID:    externalID,
			Email:         email,
			EmailVerified: true,
		},
		AccessToken:  "prov-access",
		RefreshToken: "prov-refresh",
	}
}

func TestResolveCreatesAccountOnce(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	u := usecase.NewOAuthUsecase(repo)
	ctx := context.Background()

	first, err := u.Resolve(ctx, googleIdentity("ext-123", "alice@example.com"))
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	if first.PasswordHash == "" {
		t.Fatal("created account has no password hash")
	}
	if !first.PasswordlessProvider {
		t.Fatal("created account not marked provider-only")
	}
	if !first.HasLinkedProvider(provider.GoogleName) {
		t.Fatal("provider not linked on created account")
	}

	second, err := u.Resolve(ctx, googleIdentity("ext-123", "alice@example.com"))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("resolve not idempotent: %s vs %s", second.ID.Hex(), first.ID.Hex())
	}
	if repo.Len() != 1 {
		t.Fatalf("accounts = %d, want 1", repo.Len())
	}
}

func TestResolveLinksByTrustedEmail(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	existing := repo.Seed(&model.Account{
		Email:        "a@x.com",
		PasswordHash: "some-hash",
	})

	u := usecase.NewOAuthUsecase(repo)

	resolved, err := u.Resolve(context.Background(), googleIdentity("123", "a@x.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resolved.ID != existing.ID {
		t.Fatalf("resolved to %s, want existing account %s", resolved.ID.Hex(), existing.ID.Hex())
	}
	if repo.Len() != 1 {
		t.Fatalf("accounts = %d, want 1 (no new account)", repo.Len())
	}

	stored, err := repo.GetAccount(context.Background(), existing.ID.Hex())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.HasLinkedProvider(provider.GoogleName) {
		t.Fatal("provider not linked")
	}
	if stored.ExternalIdentities[provider.GoogleName].ExternalID != "123" {
		t.Fatal("external id not stored")
	}
	if !stored.EmailVerified {
		t.Fatal("email not marked verified by trusted provider")
	}
}

func TestResolveRefreshesProviderTokens(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	u := usecase.NewOAuthUsecase(repo)
	ctx := context.Background()

	account, err := u.Resolve(ctx, googleIdentity("ext-9", "bob@example.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	identity := googleIdentity("ext-9", "bob@example.com")
	identity.AccessToken = "fresh-access"
	identity.RefreshToken = "fresh-refresh"

	if _, err := u.Resolve(ctx, identity); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	stored, err := repo.GetAccount(ctx, account.ID.Hex())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	ext := stored.ExternalIdentities[provider.GoogleName]
	if ext.AccessToken != "fresh-access" || ext.RefreshToken != "fresh-refresh" {
		t.Fatalf("provider tokens not refreshed: %+v", ext)
	}
}

func TestResolveRejectsIncompleteProfiles(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	u := usecase.NewOAuthUsecase(repo)
	ctx := context.Background()

	// Missing external id is always invalid.
	if _, err := u.Resolve(ctx, googleIdentity("", "a@x.com")); !errors.Is(err, usecase.ErrInvalidOAuthProfile) {
		t.Fatalf("missing id: err = %v, want ErrInvalidOAuthProfile", err)
	}

	// Google's identity model depends on email.
	if _, err := u.Resolve(ctx, googleIdentity("ext-1", "")); !errors.Is(err, usecase.ErrInvalidOAuthProfile) {
		t.Fatalf("missing email: err = %v, want ErrInvalidOAuthProfile", err)
	}
}
