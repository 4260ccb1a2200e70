package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/views"
)

// SetupMiddleware installs the shared middleware chain.
func SetupMiddleware(r *gin.Engine, serviceName string) {
	// Recovery first so panics in later middleware are caught too
	r.Use(gin.CustomRecovery(recoverPanic))

	// Tracing; a no-op unless a tracer provider was installed
	r.Use(otelgin.Middleware(serviceName))

	// Pages and feeds are public and read-only
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Accept"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// Structured request log
	r.Use(RequestLogger())
}

// recoverPanic logs the panic and renders the error page. The engine must have
// the view templates loaded.
func recoverPanic(c *gin.Context, recovered any) {
	config.Logger.Errorw("panic recovered",
		"panic", recovered,
		"path", c.Request.URL.Path,
		"requestID", c.GetString("requestID"),
	)
	c.HTML(http.StatusInternalServerError, views.Status, views.ErrorPage)
	c.Abort()
}
