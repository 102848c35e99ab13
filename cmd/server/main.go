package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/config"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/database"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/handler"
	appmw "github.com/Yachtrental/rent-boats-app-sub000/internal/middleware"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/queue"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/repository"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/router"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/scheduler"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/service"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environments set vars directly
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and reservation locks disabled")
	}

	clk := clock.Real{}

	providerRepo := repository.NewProviderRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	availability := service.NewAvailability(providerRepo, calendarRepo, reservationRepo, clk)
	reservations := service.NewReservations(reservationRepo, providerRepo, catalogRepo,
		availability, clk, cfg.ConfirmationTTL, queue.PublishStatus)
	locks := utils.NewReservationLock(rdb, cfg.LockTTL)
	confirmations := service.NewConfirmations(reservationRepo, locks, clk, queue.PublishStatus)
	commissions := service.NewCommissions(reservationRepo, providerRepo)
	calendar := service.NewCalendar(calendarRepo, providerRepo, clk)

	e := echo.New()
	e.HideBanner = true
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterRoutes(e)
	router.RegisterAPI(e, cfg.JWTSecret,
		handler.NewReservationHandler(reservations, confirmations),
		handler.NewAvailabilityHandler(availability),
		handler.NewProviderHandler(calendar),
		handler.NewAdminHandler(reservations, confirmations, commissions),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.New(confirmations, cfg.SweepInterval).Start(ctx)
	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("status-consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
