package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
)

// OAuthService implements GitHub sign-in. The state parameter is a signed
// short-lived token, so no server-side session is needed.
type OAuthService interface {
	Enabled() bool
	Begin() (string, error)
	Complete(ctx context.Context, state, code string) (*models.User, string, error)
}

type githubProfile struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type oauthService struct {
	conf    *oauth2.Config
	apiBase string
	auth    AuthService
	users   UserService
}

type OAuthOption func(*oauthService)

// WithGitHubEndpoints points the flow at alternative OAuth and API hosts.
func WithGitHubEndpoints(endpoint oauth2.Endpoint, apiBase string) OAuthOption {
	return func(s *oauthService) {
		s.conf.Endpoint = endpoint
		s.apiBase = strings.TrimRight(apiBase, "/")
	}
}

func NewOAuthService(clientID, clientSecret, redirectURL string, auth AuthService, users UserService, opts ...OAuthOption) OAuthService {
	s := &oauthService{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: "https://api.github.com",
		auth:    auth,
		users:   users,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *oauthService) Enabled() bool {
	return s.conf.ClientID != "" && s.conf.ClientSecret != ""
}

// Begin returns the provider URL the browser is redirected to.
func (s *oauthService) Begin() (string, error) {
	if !s.Enabled() {
		return "", apperrors.Validation("", "github login is not configured")
	}
	state, err := s.auth.IssueStateToken()
	if err != nil {
		return "", err
	}
	return s.conf.AuthCodeURL(state), nil
}

func (s *oauthService) Complete(ctx context.Context, state, code string) (*models.User, string, error) {
	if !s.Enabled() {
		return nil, "", apperrors.Validation("", "github login is not configured")
	}
	if code == "" {
		return nil, "", apperrors.Validation("code", "authorization code is required")
	}
	if _, err := s.auth.ParseToken(state, PurposeOAuthState); err != nil {
		return nil, "", err
	}

	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return nil, "", apperrors.Auth(apperrors.AuthInvalid, fmt.Errorf("github exchange: %w", err))
	}
	client := s.conf.Client(ctx, tok)

	var profile githubProfile
	if err := s.getJSON(ctx, client, "/user", &profile); err != nil {
		return nil, "", err
	}
	email := profile.Email
	if email == "" {
		var emails []githubEmail
		if err := s.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return nil, "", err
		}
		email = primaryEmail(emails)
	}
	if email == "" {
		return nil, "", apperrors.Validation("email", "github account has no verified email")
	}
	name := profile.Name
	if name == "" {
		name = profile.Login
	}
	return s.users.FederatedLogin(ctx, email, name)
}

func primaryEmail(emails []githubEmail) string {
	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}

func (s *oauthService) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("github " + path + ": " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
