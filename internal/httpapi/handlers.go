package httpapi

import (
	"errors"
	"net/http"
	"time"

	"callmanager/internal/auth"
	"callmanager/internal/calls"
	"callmanager/internal/dispatch"
	"callmanager/internal/registry"
	"callmanager/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth    *auth.Manager
	Calls   *calls.Service
	Reports *reporting.Service
	Bus     *dispatch.Bus
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Call attempts ---

// CreateLogEntry records one dial attempt against a call log. Field
// violations come back with the offending field so the operator can correct
// the form.
func (h Handlers) CreateLogEntry(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	var req calls.CreateLogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.LogID = c.Param("log_id")

	entry, err := h.Calls.CreateLogEntry(c.Request.Context(), req)
	if err != nil {
		var ve *calls.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Reason, "field": ve.Field})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "log entry write failed"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	subject := c.Query("subject_identifier")
	out, err := h.Calls.ListCallsBySubject(c.Request.Context(), subject)
	if err != nil {
		var ve *calls.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Reason, "field": ve.Field})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": out})
}

func (h Handlers) GetCallLog(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	callID := c.Param("call_id")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}
	l, entries, err := h.Calls.GetCallLog(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call log not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": l, "entries": entries})
}

// --- Events ---

type publishEventRequest struct {
	EntityType string    `json:"entity_type"`
	IsNew      bool      `json:"is_new"`
	SubjectRef string    `json:"subject_ref"`
	EntityDate time.Time `json:"entity_date,omitempty"`
}

// PublishEvent feeds one entity write into the dispatch bus. Upstream data
// capture systems call this when they do not run in-process with the engine.
func (h Handlers) PublishEvent(c *gin.Context) {
	if h.Bus == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dispatch not configured"})
		return
	}
	var req publishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.EntityType == "" || req.SubjectRef == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "entity_type, subject_ref required"})
		return
	}

	h.Bus.Publish(c.Request.Context(), dispatch.Event{
		EntityType: registry.EventType(req.EntityType),
		IsNew:      req.IsNew,
		SubjectRef: req.SubjectRef,
		EntityDate: req.EntityDate,
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// --- Reporting ---

func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	var req reporting.CallsSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}
