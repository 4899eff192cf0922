package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository/repositorytest"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
	"github.com/Perfect-QA/DevTinder-sub000/shared/auth"
)

func newTokenUsecaseForTest(repo *repositorytest.FakeAccountRepository) usecase.TokenUsecase {
	cfg := testConfig()
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)
	return usecase.NewTokenUsecase(repo, jwtAuth, cfg)
}

func TestIssuePairAndValidateAccess(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{
		Email:       "alice@example.com",
		Role:        "user",
		Permissions: []string{"profile:read", "profile:write"},
	})

	u := newTokenUsecaseForTest(repo)

	pair, err := u.IssuePair(context.Background(), account)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	claims, err := u.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.AccountID != account.ID.Hex() {
		t.Fatalf("account id = %q, want %q", claims.AccountID, account.ID.Hex())
	}
	if claims.Role != "user" || len(claims.Permissions) != 2 {
		t.Fatalf("claims snapshot = %q/%v", claims.Role, claims.Permissions)
	}

	stored, err := repo.GetAccount(context.Background(), account.ID.Hex())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatal("refresh token was not stored on the account")
	}
}

func TestIssuePairSupersedesPriorRefreshToken(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "bob@example.com"})

	u := newTokenUsecaseForTest(repo)
	ctx := context.Background()

	first, err := u.IssuePair(ctx, account)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	if _, err := u.IssuePair(ctx, account); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	// The first refresh token is no longer the stored one and cannot rotate.
	if _, _, err := u.Rotate(ctx, first.RefreshToken); !errors.Is(err, usecase.ErrInvalidRefreshToken) {
		t.Fatalf("rotate superseded token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRotateInvalidatesPriorToken(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "carol@example.com"})

	u := newTokenUsecaseForTest(repo)
	ctx := context.Background()

	pair, err := u.IssuePair(ctx, account)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	rotated, _, err := u.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// Replaying the consumed token fails.
	if _, _, err := u.Rotate(ctx, pair.RefreshToken); !errors.Is(err, usecase.ErrInvalidRefreshToken) {
		t.Fatalf("replay: err = %v, want ErrInvalidRefreshToken", err)
	}

	// The freshly issued token still works.
	if _, _, err := u.Rotate(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("rotate fresh token: %v", err)
	}
}

func TestRotateRejectsAccessToken(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "dave@example.com"})

	u := newTokenUsecaseForTest(repo)
	ctx := context.Background()

	pair, err := u.IssuePair(ctx, account)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, _, err := u.Rotate(ctx, pair.AccessToken); !errors.Is(err, usecase.ErrInvalidRefreshToken) {
		t.Fatalf("rotate with access token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	account := repo.Seed(&model.Account{Email: "erin@example.com"})

	expiredCfg := testConfig()
	expiredCfg.Token.AccessTokenExpiresIn = -time.Minute
	jwtAuth := auth.NewJWTAuthenticator(expiredCfg.Token.Issuer, expiredCfg.Token.Issuer)
	issuer := usecase.NewTokenUsecase(repo, jwtAuth, expiredCfg)

	pair, err := issuer.IssuePair(context.Background(), account)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	u := newTokenUsecaseForTest(repo)

	if _, err := u.ValidateAccessToken(pair.AccessToken); !errors.Is(err, usecase.ErrAccessTokenExpired) {
		t.Fatalf("err = %v, want ErrAccessTokenExpired", err)
	}
}

func TestValidateAccessTokenMalformed(t *testing.T) {
	repo := repositorytest.NewFakeAccountRepository()
	u := newTokenUsecaseForTest(repo)

	if _, err := u.ValidateAccessToken("not-a-jwt"); !errors.Is(err, usecase.ErrInvalidAccessToken) {
		t.Fatalf("err = %v, want ErrInvalidAccessToken", err)
	}
}
