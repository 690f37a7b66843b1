package app

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessCheckTimeout bounds the dependency checks behind /readyz.
const readinessCheckTimeout = 3 * time.Second

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Study Abroad Counselor Bot</title></head>
<body>
<h1>Study Abroad Counselor Bot</h1>
<p>Facebook Messenger webhook server for Myanmar students planning to study abroad.</p>
<ul>
<li><code>GET /health</code>: health check</li>
<li><code>GET /ping</code>: connectivity check</li>
<li><code>GET /webhook</code>: Messenger webhook verification</li>
<li><code>POST /webhook</code>: Messenger events</li>
</ul>
</body>
</html>`

// newRouter builds the gin engine with middleware and every route.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", a.index)
	router.HEAD("/", a.index)
	router.GET("/health", a.health)
	router.GET("/ping", a.ping)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)

	router.GET("/webhook", a.webhookHandler.Verify)
	router.POST("/webhook", a.webhookHandler.Handle)

	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *Application) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (a *Application) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong – server is reachable")
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) getFeatures() map[string]bool {
	return map[string]bool{
		"generation":          a.counselor != nil && a.counselor.GenerationEnabled(),
		"signature_check":     a.cfg != nil && a.cfg.SignatureVerificationEnabled(),
		"delivery_configured": a.messenger != nil && a.messenger.Configured(),
	}
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	resp := gin.H{
		"status":   "ready",
		"database": "connected",
		"features": a.getFeatures(),
	}
	if a.knowledge != nil {
		resp["knowledge_entries"] = a.knowledge.Len()
	}
	if count, err := a.db.CountProfiles(ctx); err == nil {
		resp["cached_profiles"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count cached profiles")
	}

	c.JSON(http.StatusOK, resp)
}
