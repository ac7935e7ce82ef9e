package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sabgaby/integration-hub/internal/config"
	"github.com/sabgaby/integration-hub/internal/http/handler"
	"github.com/sabgaby/integration-hub/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware. The OAuth callback stays outside
// the session middleware: it is reached by a browser redirect from Google and
// authenticates through the state payload instead.
func NewRouter(cfg config.Config, googleHandler *handler.GoogleHandler, linksHandler *handler.LinksHandler, session *middleware.Session, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")

	google := api.Group("/google")
	{
		google.GET("/callback", googleHandler.Callback)

		google.GET("/authorize", session.RequireUser, googleHandler.Authorize)
		google.POST("/disconnect", session.RequireUser, googleHandler.Disconnect)
		google.GET("/status", session.RequireUser, googleHandler.Status)
		google.GET("/client-credentials", session.RequireUser, googleHandler.ClientCredentials)
	}

	links := api.Group("/links", session.RequireUser)
	{
		links.GET("/config", linksHandler.Config)
		links.GET("", linksHandler.List)
		links.POST("", linksHandler.Add)
		links.POST("/batch", linksHandler.AddBatch)
		links.DELETE("", linksHandler.Remove)
		links.POST("/refresh", linksHandler.Refresh)
	}

	return r
}
