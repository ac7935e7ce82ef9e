package google

import (
	"fmt"

	"github.com/sabgaby/integration-hub/internal/config"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

// Resolver picks the credential set and scopes for an integration point.
// Resolution is read-only; settings mutate only through administrator
// configuration outside this service.
type Resolver struct {
	cfg config.Config
}

// NewResolver builds a resolver over the loaded configuration.
func NewResolver(cfg config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the usable credential set. The primary set wins whenever it
// is enabled and fully configured; otherwise the legacy set is tried. When no
// explicit scopes are requested, the union of all feature-enabled scopes is
// used.
func (r *Resolver) Resolve(required ...domaingoogle.Scope) (domaingoogle.CredentialSet, error) {
	scopes := required
	if len(scopes) == 0 {
		scopes = r.enabledScopes()
	}

	if r.cfg.GoogleEnabled && r.cfg.GoogleClientID != "" && r.cfg.GoogleClientSecret != "" {
		if len(scopes) == 0 {
			return domaingoogle.CredentialSet{}, fmt.Errorf("%w: no Google services are enabled", domaingoogle.ErrConfiguration)
		}
		return domaingoogle.CredentialSet{
			ClientID:     r.cfg.GoogleClientID,
			ClientSecret: r.cfg.GoogleClientSecret,
			Scopes:       scopes,
			Source:       domaingoogle.SourcePrimary,
		}, nil
	}

	if r.cfg.LegacyGoogleEnabled && r.cfg.LegacyGoogleClientID != "" && r.cfg.LegacyGoogleClientSecret != "" {
		if len(scopes) == 0 {
			scopes = []domaingoogle.Scope{domaingoogle.ScopeDrive}
		}
		return domaingoogle.CredentialSet{
			ClientID:     r.cfg.LegacyGoogleClientID,
			ClientSecret: r.cfg.LegacyGoogleClientSecret,
			Scopes:       scopes,
			Source:       domaingoogle.SourceLegacy,
		}, nil
	}

	return domaingoogle.CredentialSet{}, fmt.Errorf("%w: configure client ID and client secret in workspace or legacy Google settings", domaingoogle.ErrConfiguration)
}

// Enabled reports whether any credential source is usable at all.
func (r *Resolver) Enabled() bool {
	_, err := r.Resolve(domaingoogle.ScopeDrive)
	return err == nil
}

// DriveEnabled reports whether the Drive feature toggle is on.
func (r *Resolver) DriveEnabled() bool { return r.cfg.EnableDrive }

// CalendarEnabled reports whether the Calendar feature toggle is on.
func (r *Resolver) CalendarEnabled() bool { return r.cfg.EnableCalendar }

// PrimaryEnabled reports whether the primary integration family is active,
// which decides the token field lookup order in the credential store.
func (r *Resolver) PrimaryEnabled() bool {
	return r.cfg.GoogleEnabled && r.cfg.GoogleClientID != "" && r.cfg.GoogleClientSecret != ""
}

// enabledScopes maps the feature toggles to their scope union. Gmail brings
// the Admin Directory read scopes needed for group listing and member sync.
func (r *Resolver) enabledScopes() []domaingoogle.Scope {
	var scopes []domaingoogle.Scope
	if r.cfg.EnableDrive {
		scopes = append(scopes, domaingoogle.ScopeDrive)
	}
	if r.cfg.EnableCalendar {
		scopes = append(scopes, domaingoogle.ScopeCalendar)
	}
	if r.cfg.EnableGmail {
		scopes = append(scopes,
			domaingoogle.ScopeMail,
			domaingoogle.ScopeDirectoryGroups,
			domaingoogle.ScopeDirectoryGroupMembers,
		)
	}
	return scopes
}
