package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkspot/reservations/internal/app"
	"github.com/parkspot/reservations/internal/clock"
	"github.com/parkspot/reservations/internal/config"
	"github.com/parkspot/reservations/internal/listings"
	"github.com/parkspot/reservations/internal/notify"
	"github.com/parkspot/reservations/internal/payment"
	omisecli "github.com/parkspot/reservations/internal/payment/omise"
	"github.com/parkspot/reservations/internal/storage/postgres"
	transporthttp "github.com/parkspot/reservations/internal/transport/http"
	"github.com/parkspot/reservations/migrations"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.OmiseSecretKey == "" {
		log.Fatalf("OMISE_SECRET_KEY is required")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	gateway, err := omisecli.New(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		log.Fatalf("payment gateway: %v", err)
	}
	coordinator := payment.NewCoordinator(gateway)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("connect to broker: %v", err)
		}
		defer func() { _ = publisher.Close() }()
		notifier = publisher
	} else {
		logger.Printf("WARN: AMQP_URL not set, booking events will not be published")
	}

	spaceRepo := postgres.NewSpaceRepository(pool)
	var directory listings.Directory = spaceRepo
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		directory = listings.NewCache(rdb, spaceRepo, cfg.ListingsTTL, logger)
	} else {
		logger.Printf("WARN: REDIS_ADDR not set, listings cache disabled")
	}

	reservationRepo := postgres.NewReservationRepository(pool)
	store := app.NewReservationStore(reservationRepo, clock.NewSystem(), app.WithHoldTTL(cfg.HoldTTL))
	bookingSvc := app.NewBookingService(store, coordinator, directory, notifier, logger,
		app.WithCurrency(cfg.Currency),
		app.WithAuthRetry(cfg.PaymentAttempts, 200*time.Millisecond),
	)
	spaceSvc := app.NewSpaceService(spaceRepo)
	sweeper := app.NewSweeper(store, clock.NewSystem(), notifier, logger, cfg.SweepInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/bookings", transporthttp.HandleCreateBooking(bookingSvc))
	mux.Handle("/bookings/", transporthttp.HandleGetReservation(bookingSvc))
	mux.Handle("/admin/spaces", transporthttp.HandleAdminSpaces(spaceSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	corsOrigins := parseCSV(cfg.CORSOrigins)
	handler := transporthttp.RequestLogger(transporthttp.CORS(corsOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(stopCtx)

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
