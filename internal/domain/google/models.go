package google

import "time"

// Scope identifies one of the Google API scopes this integration can request.
type Scope string

const (
	ScopeDrive                 Scope = "https://www.googleapis.com/auth/drive"
	ScopeCalendar              Scope = "https://www.googleapis.com/auth/calendar"
	ScopeMail                  Scope = "https://mail.google.com/"
	ScopeDirectoryGroups       Scope = "https://www.googleapis.com/auth/admin.directory.group.readonly"
	ScopeDirectoryGroupMembers Scope = "https://www.googleapis.com/auth/admin.directory.group.member.readonly"
)

// CredentialSource tells which configured credential set a resolution used.
type CredentialSource string

const (
	SourcePrimary CredentialSource = "primary"
	SourceLegacy  CredentialSource = "legacy"
)

// CredentialSet is a resolved OAuth client configuration. Immutable for the
// duration of a single flow invocation.
type CredentialSet struct {
	ClientID     string
	ClientSecret string
	Scopes       []Scope
	Source       CredentialSource
}

// ScopeStrings returns the scope set as plain strings for the oauth2 config.
func (c CredentialSet) ScopeStrings() []string {
	out := make([]string, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		out = append(out, string(s))
	}
	return out
}

// AuthorizationState is the CSRF payload bound to one authorization request.
// It travels base64url-encoded in the provider's state parameter so the
// callback, which may run as a guest session after the domain rewrite, can
// still recover the initiating user and origin site.
type AuthorizationState struct {
	Token      string `json:"token"`
	User       string `json:"user"`
	SiteURL    string `json:"site_url"`
	RedirectTo string `json:"redirect_to,omitempty"`
	MailboxID  string `json:"mailbox_id,omitempty"`
}

// ConnectionStatus is the human-readable per-user connection state.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "Connected"
	StatusNotConnected ConnectionStatus = "Not Connected"
)

// UserCredential is the persisted per-user authorization record.
type UserCredential struct {
	User         string
	RefreshToken string
	Status       ConnectionStatus
}

// SharedDrive is a provider-side shared drive cached in configuration after a
// successful authorization.
type SharedDrive struct {
	DriveID   string
	Name      string
	Enabled   bool
	CreatedAt time.Time
}

// TokenExchange is the outcome of redeeming an authorization code.
type TokenExchange struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
