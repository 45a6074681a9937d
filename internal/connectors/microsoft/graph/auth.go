// Package graph implements the programmatic session variant: an OAuth2
// token exchange against Azure AD followed by Microsoft Graph calendar
// reads. No browser is involved.
package graph

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	microsoftoauth "golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/outcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/logger"
)

// defaultScopes are the delegated permissions requested during sign-in.
// offline_access is required for refresh tokens.
var defaultScopes = []string{
	"openid",
	"offline_access",
	"User.Read",
	"Calendars.Read",
}

// AuthConfig configures the Graph authenticator.
type AuthConfig struct {
	// App is the Azure app registration (public client, no secret).
	App domain.GraphApp

	// Scopes overrides defaultScopes when non-empty.
	Scopes []string

	// TokenDir overrides the token cache location. Empty selects the
	// default (~/.outcal).
	TokenDir string

	// Endpoint overrides the Azure AD endpoint. Used by tests; when zero
	// the tenant's AzureADEndpoint is used.
	Endpoint oauth2.Endpoint

	// GraphBaseURL overrides the Graph API base URL. Used by tests.
	GraphBaseURL string
}

// Authenticator implements the programmatic session variant. Sign-in
// order: cached token with silent refresh, then the password grant, then
// the device-code flow when the provider demands two-factor approval.
type Authenticator struct {
	cfg    *oauth2.Config
	store  *TokenStore
	base   string
	target string
}

var _ driven.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates a Graph authenticator for an app registration.
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.App.TenantID == "" || cfg.App.ClientID == "" {
		return nil, domain.ErrGraphAppMissing
	}

	store, err := NewTokenStore(cfg.TokenDir)
	if err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = microsoftoauth.AzureADEndpoint(cfg.App.TenantID)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	base := cfg.GraphBaseURL

	return &Authenticator{
		cfg: &oauth2.Config{
			ClientID: cfg.App.ClientID,
			Endpoint: endpoint,
			Scopes:   scopes,
		},
		store: store,
		base:  base,
	}, nil
}

// Authenticate establishes a Graph session for the target profile.
func (a *Authenticator) Authenticate(ctx context.Context, profile domain.TargetProfile) (driven.Session, error) {
	// Silent path: cached token, refreshed if expired.
	if token, err := a.silentToken(ctx, profile.Name); err == nil && token != nil {
		logger.Debug("graph: using cached token for %s", profile.Name)
		return a.newSession(profile.Name, token), nil
	}

	token, err := a.passwordToken(ctx, profile)
	if errors.Is(err, errInteractionRequired) {
		token, err = a.deviceCodeToken(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := a.store.Save(profile.Name, token); err != nil {
		logger.Warn("graph: could not cache token: %v", err)
	}

	a.logAccount(ctx, token)

	return a.newSession(profile.Name, token), nil
}

// logAccount resolves the signed-in account after a fresh sign-in so the
// user can tell which mailbox the run is reading. Best effort only.
func (a *Authenticator) logAccount(ctx context.Context, token *oauth2.Token) {
	base := a.base
	if base == "" {
		base = microsoft.GraphBaseURL
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := microsoft.GetUserInfo(short, base, token.AccessToken)
	if err != nil {
		logger.Debug("graph: profile lookup failed: %v", err)
		return
	}
	logger.Info("signed in as %s", info.Email())
}

func (a *Authenticator) newSession(target string, token *oauth2.Token) *Session {
	return &Session{
		token:   token,
		base:    a.base,
		store:   a.store,
		target:  target,
		limiter: newLimiter(),
	}
}

// silentToken loads the cached token and refreshes it when expired.
func (a *Authenticator) silentToken(ctx context.Context, target string) (*oauth2.Token, error) {
	cached, err := a.store.Load(target)
	if err != nil || cached == nil {
		return nil, err
	}

	fresh, err := a.cfg.TokenSource(ctx, cached).Token()
	if err != nil {
		logger.Debug("graph: silent refresh failed: %v", err)
		return nil, err
	}

	if fresh.AccessToken != cached.AccessToken {
		if err := a.store.Save(target, fresh); err != nil {
			logger.Warn("graph: could not cache refreshed token: %v", err)
		}
	}
	return fresh, nil
}

// errInteractionRequired signals that the password grant succeeded as far
// as credentials go, but the tenant demands an interactive/two-factor
// step. The caller falls through to the device-code flow.
var errInteractionRequired = errors.New("graph: interaction required")

// passwordToken attempts the resource-owner password grant. Tenants that
// enforce MFA reject it with an interaction_required class error.
func (a *Authenticator) passwordToken(ctx context.Context, profile domain.TargetProfile) (*oauth2.Token, error) {
	if profile.Password == "" {
		// Nothing to try; go straight to the interactive flow.
		return nil, errInteractionRequired
	}

	logger.Debug("graph: attempting password grant for %s", profile.Username)
	token, err := a.cfg.PasswordCredentialsToken(ctx, profile.Username, profile.Password)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return token, nil
}

// deviceCodeToken runs the device-code flow: the verification code is
// surfaced to the user, then the token endpoint is polled until the
// provider reports approval, denial, or expiry of the code.
func (a *Authenticator) deviceCodeToken(ctx context.Context) (*oauth2.Token, error) {
	da, err := a.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	fmt.Fprintf(os.Stderr, "\nTwo-factor sign-in required.\n")
	fmt.Fprintf(os.Stderr, "Visit %s and enter the code: %s\n", da.VerificationURI, da.UserCode)
	fmt.Fprintf(os.Stderr, "Waiting for approval...\n\n")

	waitCtx := ctx
	if !da.Expiry.IsZero() {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithDeadline(ctx, da.Expiry)
		defer cancel()
	}

	token, err := a.cfg.DeviceAccessToken(waitCtx, da)
	if err != nil {
		if waitCtx.Err() != nil {
			return nil, domain.ErrAuthTimeout
		}
		return nil, classifyTokenError(err)
	}
	return token, nil
}

// Logout discards the cached token for a target.
func (a *Authenticator) Logout(target string) error {
	return a.store.Delete(target)
}

// classifyTokenError maps Azure AD token endpoint failures onto the auth
// error taxonomy. Error bodies are matched on AADSTS codes; the raw body
// is never surfaced because it can echo request parameters.
func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		body := string(retrieveErr.Body)
		switch {
		case retrieveErr.ErrorCode == "authorization_declined":
			return domain.ErrTwoFactorDenied
		case retrieveErr.ErrorCode == "expired_token":
			return domain.ErrAuthTimeout
		case containsAny(body, "AADSTS50076", "AADSTS50079", "interaction_required"):
			return errInteractionRequired
		case containsAny(body, "AADSTS50126", "AADSTS50034", "invalid_grant"):
			return domain.ErrInvalidCredentials
		default:
			return fmt.Errorf("%w: token endpoint status %d", domain.ErrAuthNetwork, retrieveErr.Response.StatusCode)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", domain.ErrAuthNetwork, urlErr.Err)
	}

	return fmt.Errorf("%w: %v", domain.ErrAuthNetwork, err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
