package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openclub/attendance/internal/cache"
	"github.com/openclub/attendance/internal/config"
	"github.com/openclub/attendance/internal/database"
	"github.com/openclub/attendance/internal/handler"
	"github.com/openclub/attendance/internal/middleware"
	"github.com/openclub/attendance/internal/queue"
	"github.com/openclub/attendance/internal/repository"
	"github.com/openclub/attendance/internal/router"
	"github.com/openclub/attendance/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	stores := service.Stores{
		Programs:     repository.NewProgramRepo(db),
		Sessions:     repository.NewSessionRepo(db),
		Participants: repository.NewParticipantRepo(db),
		Tokens:       repository.NewTokenRepo(db),
		Attendance:   repository.NewAttendanceRepo(db),
		Absences:     repository.NewAbsenceRepo(db),
		Deposits:     repository.NewDepositRepo(db),
	}

	var events service.Events
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
	} else {
		log.Println("RABBITMQ_URL unset, event publishing disabled")
	}

	views := cache.NewAttendanceViews(rdb, cfg.AttendanceCache)
	authz := service.NewAuthorizer(stores.Participants)
	tokens := service.NewTokenService(stores, authz, cfg.TokenTTL)
	checkins := service.NewCheckInService(stores, tokens, authz, views, events, cfg.GraceWindow)
	absences := service.NewAbsenceService(stores, authz, views)
	stats := service.NewStatsService(stores, views)
	settlements := service.NewSettlementService(stores, stats, authz, events)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.Register(e, router.Handlers{
		Health:      handler.NewHealthHandler(db, rdb),
		Tokens:      handler.NewTokenHandler(tokens),
		CheckIns:    handler.NewCheckInHandler(checkins),
		Absences:    handler.NewAbsenceHandler(absences),
		Attendance:  handler.NewAttendanceHandler(stats, authz),
		Settlements: handler.NewSettlementHandler(settlements),
	}, cfg.JWTSecret, rateLimit)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Println("server stopped")
}
