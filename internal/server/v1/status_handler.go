package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beacon-gw/beacon/internal/gateway"
)

type StatusHandler struct {
	service gateway.Service
}

func NewStatusHandler(service gateway.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// Health is the public liveness endpoint.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the gateway state machine and usage counters.
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

// ProviderHealth probes every active provider and reports per-provider
// results. Each probe can take up to five seconds; operator use only.
func (h *StatusHandler) ProviderHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.service.HealthCheck(c.Request.Context()),
	})
}
