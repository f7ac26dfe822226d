package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness and backend reachability.
type HealthHandler struct {
	DB  *sql.DB
	RDB *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, RDB: rdb}
}

// Health answers load balancer probes.  The database is required;
// redis is reported but never fails the check because the engine
// degrades without it.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbState := "ok"
	if err := h.DB.PingContext(ctx); err != nil {
		dbState = "down"
		status = http.StatusServiceUnavailable
	}
	redisState := "ok"
	if h.RDB == nil {
		redisState = "disabled"
	} else if err := h.RDB.Ping(ctx).Err(); err != nil {
		redisState = "down"
	}
	return c.JSON(status, echo.Map{"db": dbState, "redis": redisState})
}
