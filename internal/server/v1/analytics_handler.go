package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beacon-gw/beacon/internal/store"
	"github.com/beacon-gw/beacon/pkg/api"
)

// AnalyticsHandler exposes the persisted attempt history. Registered only
// when the store is enabled.
type AnalyticsHandler struct {
	repo store.Repository
}

func NewAnalyticsHandler(repo store.Repository) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo}
}

func (h *AnalyticsHandler) RecentAttempts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	attempts, err := h.repo.Attempts().GetRecent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to load attempt history", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

func (h *AnalyticsHandler) OutcomeTallies(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 90 {
		days = 7
	}

	tallies, err := h.repo.Attempts().CountByOutcome(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to aggregate attempts", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "tallies": tallies})
}
