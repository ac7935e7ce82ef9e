package google

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
	"github.com/sabgaby/integration-hub/internal/repository"
)

// SessionBuilder constructs per-user API sessions from stored refresh tokens.
type SessionBuilder struct {
	resolver *Resolver
	creds    repository.CredentialStore
	logger   *zap.Logger
}

// NewSessionBuilder wires the builder.
func NewSessionBuilder(resolver *Resolver, creds repository.CredentialStore, logger *zap.Logger) *SessionBuilder {
	if logger == nil {
		logger = zap.L()
	}
	return &SessionBuilder{resolver: resolver, creds: creds, logger: logger}
}

// Session is a transient credential object wrapping an auto-refreshing access
// token derived from the user's refresh token. It is built fresh per
// operation and never persisted.
type Session struct {
	user   string
	source oauth2.TokenSource
}

// Build returns a live session for the user. The access token starts unset
// and is refreshed lazily on first use. Fails with ErrNotAuthorized when the
// user has no stored refresh token or no credential source is usable.
func (b *SessionBuilder) Build(ctx context.Context, user string, scopes ...domaingoogle.Scope) (*Session, error) {
	set, err := b.resolver.Resolve(scopes...)
	if err != nil {
		return nil, err
	}

	refreshToken, err := b.creds.Get(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: user %s", domaingoogle.ErrNotAuthorized, user)
	}

	conf := &oauth2.Config{
		ClientID:     set.ClientID,
		ClientSecret: set.ClientSecret,
		Endpoint:     googleendpoint.Endpoint,
		Scopes:       set.ScopeStrings(),
	}
	base := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return &Session{user: user, source: oauth2.ReuseTokenSource(nil, base)}, nil
}

// User returns the identifier the session was built for.
func (s *Session) User() string { return s.user }

// TokenSource exposes the auto-refreshing token source for API clients.
func (s *Session) TokenSource() oauth2.TokenSource { return s.source }

// AccessToken forces a refresh if needed and returns the current access
// token, for callers that hand the token to a front-end (the Drive picker).
// A refresh failure means the stored refresh token no longer works; the
// stored token is kept, and only an explicit disconnect clears it.
func (s *Session) AccessToken() (string, error) {
	tok, err := s.source.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return "", fmt.Errorf("%w: %v", domaingoogle.ErrAuthorizationExpired, err)
		}
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return tok.AccessToken, nil
}

// Drive builds a Drive API client over this session.
func (s *Session) Drive(ctx context.Context) (*driveapi.Service, error) {
	svc, err := driveapi.NewService(ctx, option.WithTokenSource(s.source))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return svc, nil
}

// Calendar builds a Calendar API client over this session.
func (s *Session) Calendar(ctx context.Context) (*calendarapi.Service, error) {
	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(s.source))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return svc, nil
}
