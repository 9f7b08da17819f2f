package federated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// GoogleUserInfoURL is the OpenID userinfo endpoint.
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	// ProfileScope requests the basic profile only: no email, no contacts.
	ProfileScope = "profile"

	defaultTimeout = 10 * time.Second
)

// GoogleConfig configures the Google provider. Endpoint and UserInfoURL
// default to Google's production URLs.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Timeout bounds each call to Google (token exchange, userinfo).
	Timeout time.Duration

	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Google signs users in with their Google account.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
	timeout     time.Duration
}

func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{ProfileScope},
			Endpoint:     cfg.Endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		timeout:     cfg.Timeout,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

type googleUserInfo struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
}

// Exchange trades the authorization code for a token and fetches the
// profile. Both calls together are bounded by the configured timeout.
func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("google: code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}

	res, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("google: userinfo request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return Profile{}, fmt.Errorf("google: userinfo returned %s", res.Status)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("google: invalid userinfo response: %w", err)
	}
	if info.Sub == "" {
		return Profile{}, errors.New("google: userinfo response has no subject")
	}

	return Profile{ProviderID: info.Sub, DisplayName: info.Name}, nil
}
