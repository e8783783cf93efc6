package http

import (
	"github.com/gin-gonic/gin"
)

// Register attaches every bridge route to router. Channel names contain
// slashes, so callers escape them as %2F and routing matches on the raw path.
func (h *Handlers) Register(router *gin.Engine) {
	router.UseRawPath = true
	router.UnescapePathValues = true

	router.GET("/health", h.Health)

	router.GET("/services", h.ListServices)
	router.GET("/services/discover", h.DiscoverServices)
	router.POST("/channels/:channel/invoke", h.Invoke)

	router.GET("/picker/pending", h.PendingPick)
	router.POST("/picker/complete", h.CompletePick)

	router.GET("/grants", h.ListGrants)
	router.DELETE("/grants", h.ReleaseGrant)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}
