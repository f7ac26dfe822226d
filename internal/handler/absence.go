package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/service"
)

// AbsenceHandler covers the excused-absence request workflow.
type AbsenceHandler struct {
	Absences *service.AbsenceService
}

func NewAbsenceHandler(absences *service.AbsenceService) *AbsenceHandler {
	if absences == nil {
		panic("nil service passed to NewAbsenceHandler")
	}
	return &AbsenceHandler{Absences: absences}
}

type submitAbsenceRequest struct {
	Reason string `json:"reason"`
}

type reviewAbsenceRequest struct {
	Note *string `json:"note"`
}

type absenceResponse struct {
	ID         uint64  `json:"id"`
	SessionID  uint64  `json:"session_id"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
	ReviewedAt *string `json:"reviewed_at,omitempty"`
	ReviewNote *string `json:"review_note,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func newAbsenceResponse(req *model.AbsenceRequest) absenceResponse {
	resp := absenceResponse{
		ID:         req.ID,
		SessionID:  req.SessionID,
		Status:     req.Status,
		Reason:     req.Reason,
		ReviewNote: req.ReviewNote,
		CreatedAt:  req.CreatedAt.UTC().Format(time.RFC3339),
	}
	if req.ReviewedAt != nil {
		s := req.ReviewedAt.UTC().Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

// Submit handles POST /v1/sessions/:id/absences.
func (h *AbsenceHandler) Submit(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req submitAbsenceRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}
	created, err := h.Absences.Submit(c.Request().Context(), sessionID, actor.UserID, strings.TrimSpace(req.Reason))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newAbsenceResponse(created))
}

// Approve handles POST /v1/absences/:id/approve.
func (h *AbsenceHandler) Approve(c echo.Context) error {
	return h.review(c, h.Absences.Approve)
}

// Reject handles POST /v1/absences/:id/reject.
func (h *AbsenceHandler) Reject(c echo.Context) error {
	return h.review(c, h.Absences.Reject)
}

func (h *AbsenceHandler) review(c echo.Context, decide func(ctx context.Context, requestID uint64, actor model.Actor, note *string) (*model.AbsenceRequest, error)) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req reviewAbsenceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	decided, err := decide(c.Request().Context(), requestID, actor, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newAbsenceResponse(decided))
}

// Cancel handles POST /v1/absences/:id/cancel.  Only the requester may
// withdraw, and only while the request is still pending.
func (h *AbsenceHandler) Cancel(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	if err := h.Absences.Cancel(c.Request().Context(), requestID, actor.UserID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
