package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
	authtypes "github.com/Perfect-QA/DevTinder-sub000/services/auth-service/pkg/types"
	"github.com/Perfect-QA/DevTinder-sub000/shared/auth"
)

// TokenUsecase mints, validates, and rotates access and refresh tokens.
// Exactly one refresh token is valid per account at a time: issuing a new
// one supersedes the previously stored value.
type TokenUsecase interface {
	// IssuePair mints an access/refresh token pair for the account and
	// stores the refresh token as the account's sole current one.
	IssuePair(ctx context.Context, account *model.Account) (*authtypes.TokenPair, error)

	// Rotate exchanges a refresh token for a fresh pair. Any mismatch with
	// the stored token, including reuse of an already-rotated value, fails
	// with ErrInvalidRefreshToken.
	Rotate(ctx context.Context, refreshToken string) (*authtypes.TokenPair, *model.Account, error)

	// ValidateAccessToken parses and verifies an access token, returning
	// ErrAccessTokenExpired for expired tokens and ErrInvalidAccessToken
	// for everything else that fails verification.
	ValidateAccessToken(tokenStr string) (*authtypes.AccessClaims, error)

	// Revoke discards the account's current refresh token, forcing a full
	// re-authentication on every device.
	Revoke(ctx context.Context, accountID string) error
}

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAccessTokenExpired  = errors.New("access token expired")
	ErrInvalidAccessToken  = errors.New("invalid access token")
)

type tokenUsecase struct {
	accountRepo    repository.AccountRepository
	jwtAuth        auth.JWTAuthenticator
	authServiceCfg *config.AuthServiceConfig
	now            func() time.Time
}

func NewTokenUsecase(
	accountRepo repository.AccountRepository,
	jwtAuth auth.JWTAuthenticator,
	authServiceCfg *config.AuthServiceConfig,
) TokenUsecase {
	return &tokenUsecase{
		accountRepo:    accountRepo,
		jwtAuth:        jwtAuth,
		authServiceCfg: authServiceCfg,
		now:            time.Now,
	}
}

func (u *tokenUsecase) IssuePair(ctx context.Context, account *model.Account) (*authtypes.TokenPair, error) {
	pair, refreshExpiresAt, err := u.mintPair(account)
	if err != nil {
		return nil, err
	}

	if err := u.accountRepo.SetRefreshToken(ctx, account.ID.Hex(), pair.RefreshToken, refreshExpiresAt); err != nil {
		return nil, err
	}

	return pair, nil
}

func (u *tokenUsecase) Rotate(ctx context.Context, refreshToken string) (*authtypes.TokenPair, *model.Account, error) {
	claims := &authtypes.RefreshClaims{}
	err := u.jwtAuth.ValidateTokenWithClaims(refreshToken, u.authServiceCfg.Token.RefreshTokenSecret, claims)
	if err != nil || claims.TokenType != authtypes.RefreshTokenType {
		// Expired, malformed, badly signed, or not a refresh token at all;
		// the caller learns nothing beyond "re-authenticate".
		return nil, nil, ErrInvalidRefreshToken
	}

	account, err := u.accountRepo.GetAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrInvalidRefreshToken
		}

		return nil, nil, err
	}

	pair, refreshExpiresAt, err := u.mintPair(account)
	if err != nil {
		return nil, nil, err
	}

	// Compare-and-swap against the stored value: a token that was already
	// rotated no longer matches and the replay fails here.
	err = u.accountRepo.SwapRefreshToken(ctx, account.ID.Hex(), refreshToken, pair.RefreshToken, refreshExpiresAt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrInvalidRefreshToken
		}

		return nil, nil, err
	}

	return pair, account, nil
}

func (u *tokenUsecase) ValidateAccessToken(tokenStr string) (*authtypes.AccessClaims, error) {
	claims := &authtypes.AccessClaims{}
	err := u.jwtAuth.ValidateTokenWithClaims(tokenStr, u.authServiceCfg.Token.AccessTokenSecret, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}

		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

func (u *tokenUsecase) Revoke(ctx context.Context, accountID string) error {
	return u.accountRepo.ClearRefreshToken(ctx, accountID)
}

func (u *tokenUsecase) mintPair(account *model.Account) (*authtypes.TokenPair, time.Time, error) {
	now := u.now()
	tokenCfg := u.authServiceCfg.Token

	accessClaims := authtypes.AccessClaims{
		AccountID:        account.ID.Hex(),
		Role:             account.Role,
		Permissions:      account.Permissions,
		IsAdmin:          account.IsAdmin,
		RegisteredClaims: u.registeredClaims(account.ID.Hex(), now, tokenCfg.AccessTokenExpiresIn),
	}

	accessToken, err := u.jwtAuth.GenerateToken(accessClaims, tokenCfg.AccessTokenSecret)
	if err != nil {
		return nil, time.Time{}, err
	}

	refreshExpiresAt := now.Add(tokenCfg.RefreshTokenExpiresIn)
	refreshClaims := authtypes.RefreshClaims{
		AccountID:        account.ID.Hex(),
		TokenType:        authtypes.RefreshTokenType,
		RegisteredClaims: u.registeredClaims(account.ID.Hex(), now, tokenCfg.RefreshTokenExpiresIn),
	}

	refreshToken, err := u.jwtAuth.GenerateToken(refreshClaims, tokenCfg.RefreshTokenSecret)
	if err != nil {
		return nil, time.Time{}, err
	}

	return &authtypes.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, refreshExpiresAt, nil
}

// registeredClaims builds the common claims. The jti makes every minted
// token unique even when two are issued within the same second.
func (u *tokenUsecase) registeredClaims(accountID string, now time.Time, expiresIn time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    u.authServiceCfg.Token.Issuer,
		Audience:  jwt.ClaimStrings{u.authServiceCfg.Token.Issuer},
	}
}
