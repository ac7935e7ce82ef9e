package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

// googleErrorPayload maps the Google integration's sentinel errors to an HTTP
// status and response body. It returns a nil payload for errors it does not
// recognise so callers can fall back to a generic 500.
func googleErrorPayload(err error) (int, gin.H) {
	var apiErr *domaingoogle.APIError

	switch {
	case errors.Is(err, domaingoogle.ErrNotAuthorized):
		return http.StatusForbidden, gin.H{
			"error":             "not_authorized",
			"error_description": "Your Google account is not connected. Authorize it from the integration settings page.",
		}
	case errors.Is(err, domaingoogle.ErrAuthorizationExpired):
		return http.StatusForbidden, gin.H{
			"error":             "authorization_expired",
			"error_description": "Your Google authorization has expired. Please reconnect your account.",
		}
	case errors.Is(err, domaingoogle.ErrConfiguration):
		return http.StatusConflict, gin.H{
			"error":             "not_configured",
			"error_description": "Google integration is not configured.",
		}
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, gin.H{
			"error":             "upstream_error",
			"error_description": "Google rejected the request.",
			"upstream_status":   apiErr.Status,
		}
	case errors.Is(err, domaingoogle.ErrUpstream):
		return http.StatusBadGateway, gin.H{
			"error":             "upstream_error",
			"error_description": "Google is temporarily unavailable. Please try again.",
		}
	}
	return 0, nil
}
