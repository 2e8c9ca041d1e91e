package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"kyccodes/internal/authz"
	"kyccodes/internal/handlers"
	"kyccodes/internal/middleware"
)

type Handlers struct {
	ManagementCode *handlers.ManagementCodeHandler
	Code           *handlers.CodeHandler
	Phone          *handlers.PhoneHandler
}

type Options struct {
	JWTSecret []byte
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Swagger  bool
}

func SetupRoutes(r *gin.Engine, h Handlers, opts Options) *gin.Engine {
	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.AuthMiddleware(opts.JWTSecret)

	// ---- management (service tokens with scopes)
	mgmt := r.Group("/management/code", auth)
	{
		mgmt.POST("/create", middleware.RequireScopes(authz.ScopeWriteCodes), h.ManagementCode.Create)
		mgmt.POST("/get", middleware.RequireScopes(authz.ScopeReadCodes), h.ManagementCode.Get)
		mgmt.POST("/verify_code", middleware.RequireScopes(authz.ScopeWriteCodes), h.ManagementCode.Verify)
	}

	// ---- resource (user session tokens)
	res := r.Group("/resource", auth, middleware.RequireUser())
	{
		res.POST("/code/", h.Code.RequestCode)
		res.GET("/phones", h.Phone.List)
	}

	return r
}
