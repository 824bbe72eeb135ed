package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/middleware"
)

// ErrorResponse is the toast payload shown by the dashboard for failed actions.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request trace ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// LoginRequest is accepted as JSON or as a submitted form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"next" form:"next"`
}

// SessionResponse describes the signed-in user as the dashboard sees it.
type SessionResponse struct {
	User        *domain.Profile `json:"user"`
	Roles       []domain.Role   `json:"roles"`
	Permissions []string        `json:"permissions"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Redirect    string          `json:"redirect,omitempty"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse lists the outcome of every dependency check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DataResponse wraps single resources the way the upstream API does.
type DataResponse struct {
	Data any `json:"data"`
}
