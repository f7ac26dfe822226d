package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/service"
)

// TokenHandler issues and rotates check-in tokens for organizers.
type TokenHandler struct {
	Tokens *service.TokenService
}

func NewTokenHandler(tokens *service.TokenService) *TokenHandler {
	if tokens == nil {
		panic("nil service passed to NewTokenHandler")
	}
	return &TokenHandler{Tokens: tokens}
}

// Issue handles POST /v1/sessions/:id/token.  Issuing always replaces
// the session's previously active token, so the endpoint also serves as
// the display-refresh path.
func (h *TokenHandler) Issue(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	issued, err := h.Tokens.Issue(c.Request().Context(), sessionID, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, issued)
}

// Refresh handles POST /v1/sessions/:id/token/refresh.
func (h *TokenHandler) Refresh(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	issued, err := h.Tokens.Refresh(c.Request().Context(), sessionID, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, issued)
}
