package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

// ProviderExchanger redeems authorization codes against Google's token
// endpoint with a bounded-timeout HTTP client.
type ProviderExchanger struct {
	httpClient *http.Client
}

var _ Exchanger = (*ProviderExchanger)(nil)

// NewProviderExchanger constructs the default exchanger. A nil client gets a
// 30-second timeout so no exchange can block indefinitely.
func NewProviderExchanger(client *http.Client) *ProviderExchanger {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ProviderExchanger{httpClient: client}
}

// Exchange performs the authorization-code grant.
func (e *ProviderExchanger) Exchange(ctx context.Context, creds domaingoogle.CredentialSet, redirectURI, code string) (*domaingoogle.TokenExchange, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     googleendpoint.Endpoint,
		RedirectURL:  redirectURI,
		Scopes:       creds.ScopeStrings(),
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return &domaingoogle.TokenExchange{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}
