// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/pscomixx/studio-collab/api/middleware"
	"github.com/pscomixx/studio-collab/internal/model"
	"github.com/pscomixx/studio-collab/internal/session"
	"github.com/pscomixx/studio-collab/internal/ws"
)

// SessionHandler handles HTTP requests for collab session management.
type SessionHandler struct {
	manager  *session.Manager
	realtime *ws.Service
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager, realtime *ws.Service) *SessionHandler {
	return &SessionHandler{
		manager:  manager,
		realtime: realtime,
	}
}

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	Title           string `json:"title" binding:"required"`
	MaxParticipants int    `json:"maxParticipants"`
	PageCount       int    `json:"pageCount"`
}

// JoinByCodeRequest represents the request body for join-by-code resolution.
type JoinByCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdateStatusRequest represents a session status transition request.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID               string `json:"id"`
	OwnerID          string `json:"ownerId"`
	Title            string `json:"title"`
	InviteCode       string `json:"inviteCode"`
	MaxParticipants  int    `json:"maxParticipants"`
	PageCount        int    `json:"pageCount"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participantCount"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *SessionHandler) toSessionResponse(s *model.Session) *SessionResponse {
	return &SessionResponse{
		ID:               s.ID,
		OwnerID:          s.OwnerID,
		Title:            s.Title,
		InviteCode:       s.InviteCode,
		MaxParticipants:  s.MaxParticipants,
		PageCount:        s.PageCount,
		Status:           string(s.Status),
		ParticipantCount: h.realtime.SessionUserCount(s.ID),
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.Format(time.RFC3339),
	}
}

// getUserID extracts the user ID set by the identity middleware.
func getUserID(c *gin.Context) string {
	if userID, exists := c.Get(middleware.ContextUserID); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return "default-user"
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// Create handles POST /api/sessions - creates a new collab session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	sess, err := h.manager.Create(c.Request.Context(), &model.CreateSessionRequest{
		Title:           req.Title,
		MaxParticipants: req.MaxParticipants,
		PageCount:       req.PageCount,
		OwnerID:         getUserID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired),
			errors.Is(err, model.ErrInvalidCapacity),
			errors.Is(err, model.ErrInvalidPageCount):
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, h.toSessionResponse(sess))
}

// List handles GET /api/sessions - lists the caller's sessions.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.manager.List(c.Request.Context(), getUserID(c))
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, lo.Map(sessions, func(s *model.Session, _ int) *SessionResponse {
		return h.toSessionResponse(s)
	}))
}

// Get handles GET /api/sessions/:id - gets a specific session.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, h.toSessionResponse(sess))
}

// JoinByCode handles POST /api/sessions/join - resolves an invite code to a
// session ahead of the realtime handshake.
func (h *SessionHandler) JoinByCode(c *gin.Context) {
	var req JoinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	sess, err := h.manager.ResolveInviteCode(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSessionNotFound):
			sendError(c, http.StatusNotFound, "CODE_NOT_FOUND", "Invite code not recognized")
		case errors.Is(err, model.ErrSessionClosed):
			sendError(c, http.StatusGone, "SESSION_CLOSED", "Session has ended")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve invite code: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, h.toSessionResponse(sess))
}

// UpdateStatus handles PATCH /api/sessions/:id/status - owner-initiated
// status transitions. Completing a session evicts its live participants.
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	sess, err := h.manager.UpdateStatus(c.Request.Context(), c.Param("id"), getUserID(c), model.SessionStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSessionNotFound):
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		case errors.Is(err, model.ErrForbidden):
			sendError(c, http.StatusForbidden, "FORBIDDEN", "Only the owner may change session status")
		case errors.Is(err, model.ErrInvalidTransition):
			sendError(c, http.StatusBadRequest, "INVALID_STATE", "Invalid status transition")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update status: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, h.toSessionResponse(sess))
}

// Delete handles DELETE /api/sessions/:id - deletes a session.
func (h *SessionHandler) Delete(c *gin.Context) {
	err := h.manager.Delete(c.Request.Context(), c.Param("id"), getUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSessionNotFound):
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		case errors.Is(err, model.ErrForbidden):
			sendError(c, http.StatusForbidden, "FORBIDDEN", "Only the owner may delete the session")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete session: "+err.Error())
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the session handler routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.POST("/join", h.JoinByCode)
		sessions.GET("/:id", h.Get)
		sessions.PATCH("/:id/status", h.UpdateStatus)
		sessions.DELETE("/:id", h.Delete)
	}
}
