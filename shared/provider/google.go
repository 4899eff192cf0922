package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var ErrInvalidGoogleAudience = errors.New("invalid google audience")

// GoogleName is the provider key stored on accounts linked through Google.
const GoogleName = "google"

// GoogleOAuthProvider validates Google ID tokens and resolves them into an
// Identity. Google's identity model is email-based, so the resolved profile
// always carries the token's email and its verification status.
type GoogleOAuthProvider struct {
	clientID string
}

func NewGoogleOAuthProvider(clientID string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{clientID: clientID}
}

func (p *GoogleOAuthProvider) Name() string { return GoogleName }

// ResolveIdentity validates the ID token against Google and returns the
// normalized identity. The optional access token enriches the profile with
// name and picture and is stored on the account for later provider calls.
func (p *GoogleOAuthProvider) ResolveIdentity(
	ctx context.Context,
	idToken, accessToken, refreshToken string,
) (*Identity, error) {
	tokenInfo, err := p.validateIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	profile := Profile{
		ExternalID:    tokenInfo.UserId,
		Email:         tokenInfo.Email,
		EmailVerified: tokenInfo.VerifiedEmail,
	}

	if accessToken != "" {
		if userInfo, err := fetchGoogleUserInfo(ctx, accessToken); err == nil {
			profile.Name = userInfo.Name
			profile.Picture = userInfo.Picture
		}
	}

	return &Identity{
		Provider:     GoogleName,
		Profile:      profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (p *GoogleOAuthProvider) validateIDToken(ctx context.Context, idToken string) (*oauth2.Tokeninfo, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(&http.Client{}))
	if err != nil {
		return nil, err
	}

	tokenInfoCall := oauth2Service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	return tokenInfo, nil
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (*oauth2.Userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("status code is not OK")
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
