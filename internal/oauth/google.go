// Package oauth implements Google sign-in for account registration and login.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"
	stateTTL       = 10 * time.Minute
	userInfoURL    = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var (
	ErrInvalidState = errors.New("invalid or expired oauth state")
	ErrNoEmail      = errors.New("provider did not return a verified email")
)

// Profile is the identity returned by the provider.
type Profile struct {
	Provider      string
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
	PictureURL    string
}

type Google struct {
	cfg         *oauth2.Config
	cache       *redis.Client
	userInfoURL string
}

// Provider is the process-wide Google client; nil when sign-in is not configured.
var Provider *Google

func NewGoogle(clientID, clientSecret, redirectURL string, cache *redis.Client) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		cache:       cache,
		userInfoURL: userInfoURL,
	}
}

// AuthURL creates a one-time state and returns the consent page URL.
func (g *Google) AuthURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := g.cache.Set(ctx, stateKey(state), "1", stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange validates state, trades code for a token and fetches the user profile.
func (g *Google) Exchange(ctx context.Context, state, code string) (Profile, error) {
	if state == "" || code == "" {
		return Profile{}, ErrInvalidState
	}
	if err := g.cache.GetDel(ctx, stateKey(state)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return Profile{}, ErrInvalidState
		}
		return Profile{}, fmt.Errorf("load oauth state: %w", err)
	}

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return Profile{}, ErrNoEmail
	}

	return Profile{
		Provider:      ProviderGoogle,
		ProviderID:    info.Sub,
		Email:         strings.ToLower(info.Email),
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		PictureURL:    info.Picture,
	}, nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
