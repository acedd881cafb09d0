package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ev-charging-reservation/internal/booking"    // Reservation engine
	"github.com/iliyamo/ev-charging-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/ev-charging-reservation/internal/database"   // MySQL connection
	"github.com/iliyamo/ev-charging-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/ev-charging-reservation/internal/middleware" // Rate limiting
	"github.com/iliyamo/ev-charging-reservation/internal/queue"      // Event consumer
	"github.com/iliyamo/ev-charging-reservation/internal/repository" // Data access layer
	"github.com/iliyamo/ev-charging-reservation/internal/router"     // Internal router setup
	"github.com/iliyamo/ev-charging-reservation/internal/sweeper"    // Periodic reconciliation
)

func main() {
	_ = godotenv.Load() // .env is optional outside development
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb == nil {
		log.Printf("redis unavailable; caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stations := repository.NewStationRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviews := repository.NewReviewRepo(db)

	engine := booking.NewEngine(repository.NewBookingStore(stations, reservations))

	sw := sweeper.New(engine, cfg.SweepInterval)
	if err := sw.Start(); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	defer sw.Stop()

	// Consumer writes confirmed-reservation events to logs/reservation.log
	// and reconnects on broker failures.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	authH := handler.NewAuthHandler(cfg, users, tokens)
	stationH := handler.NewStationHandler(stations, reviews, rdb, config.LoadCacheConfig())
	reviewH := handler.NewReviewHandler(reviews, stations)
	reservationH := handler.NewReservationHandler(engine, reservations, stations)
	paymentH := handler.NewPaymentHandler(payments, reservations, stations, engine)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, stationH, reviewH)
	router.RegisterOperator(e, stationH, cfg.JWTSecret)
	router.RegisterDriver(e, reservationH, paymentH, reviewH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
