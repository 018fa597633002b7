package services

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/shashiranjanraj/meetup/pkg/apperr"
	httpc "github.com/shashiranjanraj/meetup/pkg/http"
)

// GoogleProfile is the subset of the OpenID userinfo response we use.
type GoogleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*GoogleProfile, error)
}

type googleUserInfo struct {
	url string
}

// NewGoogleUserInfo reads profiles from the userinfo endpoint at url.
func NewGoogleUserInfo(url string) ProfileFetcher {
	return &googleUserInfo{url: url}
}

const msgGoogleToken = "Invalid Google access token."

func (g *googleUserInfo) FetchProfile(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	if accessToken == "" {
		return nil, apperr.Validation(msgGoogleToken)
	}

	// The oauth2 transport wraps DefaultClient's, so swapping that
	// transport intercepts these calls too.
	base := context.WithValue(ctx, oauth2.HTTPClient, httpc.DefaultClient)
	client := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	resp, err := httpc.Get(g.url).
		WithContext(ctx).
		Client(client).
		Timeout(5*time.Second).
		Retry(2, 200*time.Millisecond).
		Send()
	if err != nil {
		return nil, internal("google userinfo", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, apperr.Validation(msgGoogleToken)
	case !resp.OK():
		return nil, internal("google userinfo", resp.Throw())
	}

	var p GoogleProfile
	if err := resp.JSON(&p); err != nil {
		return nil, internal("google userinfo", err)
	}
	if p.Email == "" || !p.EmailVerified {
		return nil, apperr.Validation("Google account has no verified email.")
	}
	return &p, nil
}
