package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"

	"github.com/sabgaby/integration-hub/internal/config"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
	googleint "github.com/sabgaby/integration-hub/internal/google"
	"github.com/sabgaby/integration-hub/internal/repository"
)

// CallbackPath is the route the provider redirects back to.
const CallbackPath = "/api/google/callback"

// DefaultRedirectTo is where the browser lands after authorization when the
// caller did not ask for a specific page.
const DefaultRedirectTo = "/app/google-workspace-settings"

const (
	userStatePrefix    = "integration_hub_oauth_state_"
	mailboxStatePrefix = "relay_mailbox_oauth_state_"
)

// Exchanger redeems an authorization code for tokens. The production
// implementation talks to the provider's token endpoint; tests inject fakes.
type Exchanger interface {
	Exchange(ctx context.Context, creds domaingoogle.CredentialSet, redirectURI, code string) (*domaingoogle.TokenExchange, error)
}

// DriveLister lists the shared drives visible to a user's authorized session.
type DriveLister interface {
	ListSharedDrives(ctx context.Context, user string) ([]domaingoogle.SharedDrive, error)
}

// Service drives the per-user authorization lifecycle.
type Service interface {
	Begin(ctx context.Context, in BeginInput) (string, error)
	Complete(ctx context.Context, in CallbackInput) (*CallbackResult, error)
	Disconnect(ctx context.Context, user string) error
	Status(ctx context.Context, user string) (StatusOutput, error)
}

// BeginInput describes an authorization request.
type BeginInput struct {
	User       string
	RedirectTo string
	// MailboxID keys the state by a relay mailbox instead of the user, for
	// the legacy mailbox-scoped flow.
	MailboxID string
}

// CallbackInput captures the provider's callback query parameters.
type CallbackInput struct {
	Code  string
	State string
	Error string
}

// CallbackResult tells the HTTP layer where to redirect the browser.
type CallbackResult struct {
	SiteURL    string
	RedirectTo string
}

// StatusOutput is the per-user connection status.
type StatusOutput struct {
	IsConnected bool   `json:"is_connected"`
	Status      string `json:"status"`
}

type service struct {
	resolver     *googleint.Resolver
	states       repository.StateStore
	creds        repository.CredentialStore
	sharedDrives repository.SharedDriveStore
	exchanger    Exchanger
	drives       DriveLister
	cfg          config.Config
	logger       *zap.Logger
}

// NewService wires the authorization flow. drives may be nil when the Drive
// feature is disabled; the post-auth shared-drive refresh is skipped then.
func NewService(
	resolver *googleint.Resolver,
	states repository.StateStore,
	creds repository.CredentialStore,
	sharedDrives repository.SharedDriveStore,
	exchanger Exchanger,
	drives DriveLister,
	cfg config.Config,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		resolver:     resolver,
		states:       states,
		creds:        creds,
		sharedDrives: sharedDrives,
		exchanger:    exchanger,
		drives:       drives,
		cfg:          cfg,
		logger:       logger,
	}
}

var localHostPattern = regexp.MustCompile(`://[^:/]+\.local`)

// rewriteLocalHost substitutes localhost for a .local mDNS host, preserving
// the port. The provider rejects .local redirect hosts; the browser cookie
// domain stays on the original site, which is why the callback runs as guest.
func rewriteLocalHost(baseURL string) string {
	return localHostPattern.ReplaceAllString(baseURL, "://localhost")
}

func (s *service) redirectURI() string {
	return rewriteLocalHost(s.cfg.BaseURL) + CallbackPath
}

func (s *service) oauthConfig(set domaingoogle.CredentialSet) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     set.ClientID,
		ClientSecret: set.ClientSecret,
		Endpoint:     googleendpoint.Endpoint,
		RedirectURL:  s.redirectURI(),
		Scopes:       set.ScopeStrings(),
	}
}

// Begin builds the provider authorization URL for the user and stores the
// CSRF state token under the matching key.
func (s *service) Begin(ctx context.Context, in BeginInput) (string, error) {
	set, err := s.resolver.Resolve()
	if err != nil {
		return "", err
	}

	token, err := secureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}

	redirectTo := in.RedirectTo
	if redirectTo == "" {
		redirectTo = DefaultRedirectTo
	}
	state := domaingoogle.AuthorizationState{
		Token:      token,
		User:       in.User,
		SiteURL:    s.cfg.BaseURL,
		RedirectTo: redirectTo,
		MailboxID:  in.MailboxID,
	}

	key := userStatePrefix + in.User
	if in.MailboxID != "" {
		key = mailboxStatePrefix + in.MailboxID
	}
	if err := s.states.SaveState(ctx, key, token, s.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}

	encoded, err := encodeState(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	// access_type=offline with forced consent guarantees a refresh token is
	// issued even on re-authorization.
	authURL := s.oauthConfig(set).AuthCodeURL(encoded,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "false"),
	)
	return authURL, nil
}

// Complete verifies the callback, exchanges the code and persists the
// refresh token. State is single-use: it is consumed before the exchange, so
// a replayed callback fails with ErrStateExpired.
func (s *service) Complete(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	if in.Error != "" {
		s.logger.Error("oauth callback returned error", zap.String("error", in.Error))
		return nil, fmt.Errorf("%w: %s", domaingoogle.ErrAuthorizationDenied, in.Error)
	}
	if in.Code == "" {
		s.logger.Error("oauth callback received without authorization code")
		return nil, fmt.Errorf("%w: missing code", domaingoogle.ErrProtocol)
	}
	if in.State == "" {
		s.logger.Error("oauth callback received without state parameter")
		return nil, fmt.Errorf("%w: missing state", domaingoogle.ErrProtocol)
	}

	state, err := decodeState(in.State)
	if err != nil {
		s.logger.Error("invalid oauth state format", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domaingoogle.ErrProtocol, err)
	}
	if state.User == "" || state.Token == "" {
		s.logger.Error("oauth state missing user or token")
		return nil, fmt.Errorf("%w: incomplete state", domaingoogle.ErrProtocol)
	}

	if err := s.consumeState(ctx, state); err != nil {
		return nil, err
	}

	set, err := s.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	exchange, err := s.exchanger.Exchange(ctx, set, s.redirectURI(), in.Code)
	if err != nil {
		s.logger.Error("token exchange failed", zap.String("user", state.User), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domaingoogle.ErrExchangeFailed, err)
	}
	if exchange.RefreshToken == "" {
		s.logger.Error("no refresh token received", zap.String("user", state.User))
		return nil, domaingoogle.ErrNoRefreshToken
	}

	if err := s.creds.Save(ctx, state.User, exchange.RefreshToken); err != nil {
		s.logger.Error("failed to save refresh token", zap.String("user", state.User), zap.Error(err))
		return nil, fmt.Errorf("save authorization: %w", err)
	}
	s.logger.Info("google workspace authorized", zap.String("user", state.User))

	// Best effort only: a failure here must never fail the authorization.
	s.refreshSharedDrives(ctx, state.User)

	siteURL := state.SiteURL
	if siteURL == "" {
		siteURL = s.cfg.BaseURL
	}
	redirectTo := state.RedirectTo
	if redirectTo == "" {
		redirectTo = DefaultRedirectTo
	}
	return &CallbackResult{SiteURL: siteURL, RedirectTo: redirectTo}, nil
}

// consumeState looks up and deletes the stored token, trying the
// mailbox-scoped key first and the user-scoped key second. A mismatch is
// treated as a potential forgery and logged apart from ordinary expiry.
func (s *service) consumeState(ctx context.Context, state *domaingoogle.AuthorizationState) error {
	var stored string
	var err error

	if state.MailboxID != "" {
		stored, err = s.states.ConsumeState(ctx, mailboxStatePrefix+state.MailboxID)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}
	if stored == "" {
		stored, err = s.states.ConsumeState(ctx, userStatePrefix+state.User)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}

	if stored == "" {
		s.logger.Error("oauth state not found", zap.String("user", state.User))
		return domaingoogle.ErrStateExpired
	}
	if stored != state.Token {
		s.logger.Warn("oauth state mismatch",
			zap.String("user", state.User),
			zap.Bool("possible_forgery", true),
		)
		return domaingoogle.ErrStateMismatch
	}
	return nil
}

func (s *service) refreshSharedDrives(ctx context.Context, user string) {
	if s.drives == nil || s.sharedDrives == nil || !s.resolver.DriveEnabled() {
		return
	}
	discovered, err := s.drives.ListSharedDrives(ctx, user)
	if err != nil {
		s.logger.Warn("failed to auto-refresh shared drives", zap.String("user", user), zap.Error(err))
		return
	}
	added, err := s.sharedDrives.Append(ctx, discovered)
	if err != nil {
		s.logger.Warn("failed to store shared drives", zap.String("user", user), zap.Error(err))
		return
	}
	if added > 0 {
		s.logger.Info("shared drives discovered",
			zap.String("user", user), zap.Int("added", added))
	}
}

// Disconnect wipes the user's refresh token and marks them disconnected.
func (s *service) Disconnect(ctx context.Context, user string) error {
	if err := s.creds.Clear(ctx, user); err != nil {
		s.logger.Error("failed to disconnect", zap.String("user", user), zap.Error(err))
		return fmt.Errorf("disconnect: %w", err)
	}
	s.logger.Info("google workspace disconnected", zap.String("user", user))
	return nil
}

// Status reports the user's connection state. Read failures degrade to
// NotConnected rather than erroring, mirroring the settings page contract.
func (s *service) Status(ctx context.Context, user string) (StatusOutput, error) {
	token, err := s.creds.Get(ctx, user)
	if err != nil {
		s.logger.Warn("failed to read credential status", zap.String("user", user), zap.Error(err))
		return StatusOutput{IsConnected: false, Status: string(domaingoogle.StatusNotConnected)}, nil
	}
	status, err := s.creds.Status(ctx, user)
	if err != nil {
		status = domaingoogle.StatusNotConnected
	}
	return StatusOutput{IsConnected: token != "", Status: string(status)}, nil
}

func encodeState(state domaingoogle.AuthorizationState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

func decodeState(encoded string) (*domaingoogle.AuthorizationState, error) {
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	var state domaingoogle.AuthorizationState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

func secureRandomString(size int) (string, error) {
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
