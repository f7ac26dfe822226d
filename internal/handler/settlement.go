package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/service"
)

// SettlementHandler covers deposit payment recording and settlement.
type SettlementHandler struct {
	Settlements *service.SettlementService
}

func NewSettlementHandler(settlements *service.SettlementService) *SettlementHandler {
	if settlements == nil {
		panic("nil service passed to NewSettlementHandler")
	}
	return &SettlementHandler{Settlements: settlements}
}

type depositStateResponse struct {
	ProgramID     uint64   `json:"program_id"`
	ParticipantID uint64   `json:"participant_id"`
	Status        string   `json:"status"`
	ReturnCents   *uint32  `json:"return_cents,omitempty"`
	ForfeitCents  *uint32  `json:"forfeit_cents,omitempty"`
	FinalRate     *float64 `json:"final_rate,omitempty"`
	SettledAt     *string  `json:"settled_at,omitempty"`
}

func newDepositStateResponse(d *model.DepositState) depositStateResponse {
	resp := depositStateResponse{
		ProgramID:     d.ProgramID,
		ParticipantID: d.ParticipantID,
		Status:        d.Status,
		ReturnCents:   d.ReturnCents,
		ForfeitCents:  d.ForfeitCents,
		FinalRate:     d.FinalRate,
	}
	if d.SettledAt != nil {
		s := d.SettledAt.UTC().Format(time.RFC3339)
		resp.SettledAt = &s
	}
	return resp
}

func programAndUser(c echo.Context) (programID, userID uint64, err error) {
	if programID, err = pathID(c, "id"); err != nil {
		return 0, 0, errBadPath
	}
	if userID, err = pathID(c, "uid"); err != nil {
		return 0, 0, errBadPath
	}
	return programID, userID, nil
}

var errBadPath = echo.NewHTTPError(http.StatusBadRequest, "invalid path parameter")

// MarkPaid handles POST /v1/programs/:id/participants/:uid/deposit/paid.
func (h *SettlementHandler) MarkPaid(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	programID, userID, err := programAndUser(c)
	if err != nil {
		return err
	}
	if err := h.Settlements.MarkPaid(c.Request().Context(), programID, userID, actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Settle handles POST /v1/programs/:id/participants/:uid/settlement.
func (h *SettlementHandler) Settle(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	programID, userID, err := programAndUser(c)
	if err != nil {
		return err
	}
	state, err := h.Settlements.Settle(c.Request().Context(), programID, userID, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newDepositStateResponse(state))
}

// SettleAll handles POST /v1/programs/:id/settlements.
func (h *SettlementHandler) SettleAll(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	programID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid program id"})
	}
	report, err := h.Settlements.SettleAll(c.Request().Context(), programID, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
