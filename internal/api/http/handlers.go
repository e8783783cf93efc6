package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/bridge"
	"github.com/vitomein/loadintel/exportbridge/internal/grants"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/monitoring"
	"github.com/vitomein/loadintel/exportbridge/internal/picker"
	"github.com/vitomein/loadintel/exportbridge/internal/service"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
	"github.com/vitomein/loadintel/exportbridge/internal/types"
)

// PickerControl is the part of the picker a host completes from outside.
type PickerControl interface {
	Pending() (picker.Request, bool)
	OnResult(requestID string, outcome picker.Outcome) bool
}

// GrantTable lists and revokes persisted grants.
type GrantTable interface {
	List() ([]grants.Grant, error)
	Release(uri string) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	picker   PickerControl
	grants   GrantTable
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	registry *service.Registry,
	pickerCtl PickerControl,
	grantTable GrantTable,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		picker:   pickerCtl,
		grants:   grantTable,
		metrics:  metrics,
		logger:   logger,
	}
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	_, picking := h.picker.Pending()
	body := gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
		"picker":           gin.H{"pending": picking},
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListServices lists registered channels and their methods
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		if cat != types.CategoryStorage && cat != types.CategoryPicker {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + raw})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// maxDiscoverLimit bounds the number of ranked channels one query may ask for.
const maxDiscoverLimit = 50

// DiscoverServices ranks channels against a free-text query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxDiscoverLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must not exceed %d", maxDiscoverLimit)})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.Discover(query, limit),
	})
}

// Invoke dispatches a method call to a channel and waits for its reply.
// Call failures are reported in the reply body, not the HTTP status.
func (h *Handlers) Invoke(c *gin.Context) {
	name := c.Param("channel")

	var call types.MethodCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result := bridge.NewReplyResult()
	if err := h.registry.Invoke(ctx, name, call, result); err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	select {
	case reply := <-result.Done():
		c.JSON(http.StatusOK, reply)
	case <-ctx.Done():
		h.logger.Warn("Caller left before reply",
			zap.String("channel", name),
			zap.String("method", call.Method),
			zap.Error(context.Cause(ctx)),
		)
		c.AbortWithStatus(http.StatusGatewayTimeout)
	}
}

// PendingPick reports the in-flight directory pick
func (h *Handlers) PendingPick(c *gin.Context) {
	req, ok := h.picker.Pending()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"pending": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": true, "request": req})
}

// CompletePickRequest is the chooser's answer delivered over HTTP
type CompletePickRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=ok cancelled"`
	TreeURI   string `json:"tree_uri"`
}

// CompletePick finishes the pending pick
func (h *Handlers) CompletePick(c *gin.Context) {
	var req CompletePickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := picker.Canceled()
	if req.Status == "ok" {
		ref, err := docref.Parse(req.TreeURI)
		if err != nil || !ref.IsTree() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tree_uri must be a document tree URI"})
			return
		}
		outcome = picker.Confirmed(ref.String())
	}

	if !h.picker.OnResult(req.RequestID, outcome) {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending pick with that request id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListGrants lists persisted tree grants
func (h *Handlers) ListGrants(c *gin.Context) {
	list, err := h.grants.List()
	if err != nil {
		h.logger.Error("Failed to list grants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []grants.Grant{}
	}
	c.JSON(http.StatusOK, gin.H{"grants": list})
}

// ReleaseGrant revokes a persisted grant
func (h *Handlers) ReleaseGrant(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter uri is required"})
		return
	}

	if err := h.grants.Release(uri); err != nil {
		switch {
		case errors.Is(err, grants.ErrNoGrant):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, docref.ErrMalformed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to release grant", zap.String("uri", uri), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uri": uri})
}
