package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sabgaby/integration-hub/internal/config"
	"github.com/sabgaby/integration-hub/internal/domain"
	googleint "github.com/sabgaby/integration-hub/internal/google"
	"github.com/sabgaby/integration-hub/internal/http/middleware"
	"github.com/sabgaby/integration-hub/internal/service/links"
)

// AccessTokenProvider mints a fresh access token for the signed-in user, for
// handing to the browser-side file picker.
type AccessTokenProvider interface {
	AccessToken(ctx context.Context, user string) (string, error)
}

// LinksHandler exposes the record-to-Drive-file link endpoints.
type LinksHandler struct {
	links    *links.Service
	resolver *googleint.Resolver
	tokens   AccessTokenProvider
	cfg      config.Config
	logger   *zap.Logger
}

func NewLinksHandler(svc *links.Service, resolver *googleint.Resolver, tokens AccessTokenProvider, cfg config.Config, logger *zap.Logger) *LinksHandler {
	return &LinksHandler{links: svc, resolver: resolver, tokens: tokens, cfg: cfg, logger: logger}
}

type addLinkRequest struct {
	Doctype string `json:"doctype" binding:"required"`
	Docname string `json:"docname" binding:"required"`
	URL     string `json:"url"`
	FileID  string `json:"file_id"`
}

type batchLinkRequest struct {
	Doctype string   `json:"doctype" binding:"required"`
	Docname string   `json:"docname" binding:"required"`
	URLs    []string `json:"urls" binding:"required"`
}

type removeLinkRequest struct {
	Doctype string `json:"doctype" binding:"required"`
	Docname string `json:"docname" binding:"required"`
	FileID  string `json:"file_id" binding:"required"`
}

type recordRequest struct {
	Doctype string `json:"doctype" binding:"required"`
	Docname string `json:"docname" binding:"required"`
}

// Config returns everything the browser-side picker needs: the OAuth client
// id, the API key, the app id derived from the client id, and a fresh access
// token for the signed-in user. The token source is the user's stored refresh
// token, so an unauthorized user gets the usual not_authorized payload.
func (h *LinksHandler) Config(c *gin.Context) {
	set, err := h.resolver.Resolve()
	if err != nil || !h.resolver.DriveEnabled() {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	token, err := h.tokens.AccessToken(c.Request.Context(), user)
	if err != nil {
		h.addError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":      true,
		"client_id":    set.ClientID,
		"api_key":      h.cfg.GoogleAPIKey,
		"app_id":       pickerAppID(set.ClientID),
		"access_token": token,
	})
}

// pickerAppID is the project number prefix of an OAuth client id of the form
// <number>-<hash>.apps.googleusercontent.com.
func pickerAppID(clientID string) string {
	appID, _, _ := strings.Cut(clientID, "-")
	return appID
}

// List returns the links attached to a record.
func (h *LinksHandler) List(c *gin.Context) {
	doctype := c.Query("doctype")
	docname := c.Query("docname")
	if doctype == "" || docname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "doctype and docname are required."})
		return
	}

	items, err := h.links.ListByRecord(c.Request.Context(), doctype, docname)
	if err != nil {
		h.logger.Error("list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"links": items})
}

// Add attaches a single Drive file, identified by URL or by file id.
func (h *LinksHandler) Add(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	if req.URL == "" && req.FileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "url or file_id is required."})
		return
	}

	var (
		link *domain.SmartLink
		err  error
	)
	if req.FileID != "" {
		link, err = h.links.AddLinkByFileID(c.Request.Context(), user, req.Doctype, req.Docname, req.FileID)
	} else {
		link, err = h.links.AddLink(c.Request.Context(), user, req.Doctype, req.Docname, req.URL)
	}
	if err != nil {
		h.addError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"link": link})
}

// AddBatch attaches several URLs in one call with per-URL outcomes.
func (h *LinksHandler) AddBatch(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	var req batchLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}

	results := h.links.AddLinksBatch(c.Request.Context(), user, req.Doctype, req.Docname, req.URLs)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Remove detaches a file from a record.
func (h *LinksHandler) Remove(c *gin.Context) {
	var req removeLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}

	if err := h.links.RemoveLink(c.Request.Context(), req.Doctype, req.Docname, req.FileID); err != nil {
		h.logger.Error("remove link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link removed."})
}

// Refresh re-reads Drive metadata for every link on a record.
func (h *LinksHandler) Refresh(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}

	updated, err := h.links.RefreshFileNames(c.Request.Context(), user, req.Doctype, req.Docname)
	if err != nil {
		h.addError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *LinksHandler) addError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, links.ErrNotDriveURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_url", "error_description": "The URL is not a recognised Google Drive link."})
	case errors.Is(err, links.ErrAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": "already_linked", "error_description": "This file is already linked to the record."})
	default:
		status, payload := googleErrorPayload(err)
		if payload != nil {
			c.JSON(status, payload)
			return
		}
		h.logger.Error("link operation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
