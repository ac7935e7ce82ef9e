package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sabgaby/integration-hub/internal/config"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
	googleint "github.com/sabgaby/integration-hub/internal/google"
	"github.com/sabgaby/integration-hub/internal/http/middleware"
	"github.com/sabgaby/integration-hub/internal/service/oauth"
)

// Shown for any state failure so the page gives an attacker nothing to
// distinguish an expired session from a forged one.
const stateFailureMessage = "Authorization session expired or invalid. Please try again."

// GoogleHandler exposes the authorization lifecycle endpoints.
type GoogleHandler struct {
	oauth    oauth.Service
	resolver *googleint.Resolver
	cfg      config.Config
	logger   *zap.Logger
}

func NewGoogleHandler(svc oauth.Service, resolver *googleint.Resolver, cfg config.Config, logger *zap.Logger) *GoogleHandler {
	return &GoogleHandler{oauth: svc, resolver: resolver, cfg: cfg, logger: logger}
}

// Authorize builds the Google consent URL for the signed-in user.
func (h *GoogleHandler) Authorize(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	url, err := h.oauth.Begin(c.Request.Context(), oauth.BeginInput{
		User:       user,
		RedirectTo: c.Query("redirect_to"),
		MailboxID:  c.Query("mailbox_id"),
	})
	if err != nil {
		if errors.Is(err, domaingoogle.ErrConfiguration) {
			c.JSON(http.StatusConflict, gin.H{
				"error":             "not_configured",
				"error_description": "Google integration is not configured. Ask an administrator to add OAuth credentials.",
			})
			return
		}
		h.logger.Error("build authorization url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorization_url": url})
}

// Callback completes the authorization code exchange. It is reached by a
// browser redirect from Google, so the session may be absent; identity comes
// from the state payload instead.
func (h *GoogleHandler) Callback(c *gin.Context) {
	result, err := h.oauth.Complete(c.Request.Context(), oauth.CallbackInput{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	})
	if err != nil {
		h.callbackError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.SiteURL+result.RedirectTo+"?authorized=1")
}

func (h *GoogleHandler) callbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domaingoogle.ErrAuthorizationDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error":             "access_denied",
			"error_description": "Google authorization was denied. You can retry from the integration settings page.",
		})
	case errors.Is(err, domaingoogle.ErrStateExpired), errors.Is(err, domaingoogle.ErrStateMismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_state",
			"error_description": stateFailureMessage,
		})
	case errors.Is(err, domaingoogle.ErrProtocol):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "The authorization response was malformed.",
		})
	case errors.Is(err, domaingoogle.ErrNoRefreshToken):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "no_refresh_token",
			"error_description": "Google did not return a refresh token. Remove the app's access at myaccount.google.com/permissions and authorize again.",
		})
	case errors.Is(err, domaingoogle.ErrExchangeFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "exchange_failed",
			"error_description": "Could not exchange the authorization code with Google. Please try again.",
		})
	default:
		h.logger.Error("authorization callback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// Disconnect clears the stored refresh token for the signed-in user.
func (h *GoogleHandler) Disconnect(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	if err := h.oauth.Disconnect(c.Request.Context(), user); err != nil {
		h.logger.Error("disconnect google account", zap.String("user", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Google account disconnected.",
		"status":  string(domaingoogle.StatusNotConnected),
	})
}

// Status reports the connection state for the signed-in user.
func (h *GoogleHandler) Status(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	out, err := h.oauth.Status(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("read connection status", zap.String("user", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, out)
}

// ClientCredentials exposes the public pieces of the active credential set
// for front-end use (the Drive picker needs the client id and API key).
func (h *GoogleHandler) ClientCredentials(c *gin.Context) {
	set, err := h.resolver.Resolve()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":             "not_configured",
			"error_description": "Google integration is not configured.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":        set.ClientID,
		"api_key":          h.cfg.GoogleAPIKey,
		"source":           string(set.Source),
		"drive_enabled":    h.resolver.DriveEnabled(),
		"calendar_enabled": h.resolver.CalendarEnabled(),
	})
}
