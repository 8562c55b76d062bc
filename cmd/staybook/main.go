package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	meapp "staybook/internal/app/handlers/me"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/storage/memory"
	redisstore "staybook/internal/infra/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.FixturesPath != "" {
		if err := app.loadFixtures(ctx, cfg.FixturesPath, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
		}
	}

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	accounts     domainaccount.Repository
	listings     domainlisting.Repository
	outboxWorker *infraoutbox.Worker
	ready        func() error
	closers      []func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		factory     uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		mongoFactory := mongodb.NewFactory(client.DB)
		factory = mongoFactory
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongodb.NewIdempotencyStore(client.DB)
		app.accounts = mongoFactory.AccountRepo
		app.listings = mongoFactory.ListingRepo
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.closers = append(app.closers, producer.Close)
			app.outboxWorker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
		}
	default:
		accounts := memory.NewAccountRepository()
		listings := memory.NewListingRepository()
		reservations := memory.NewReservationRepository()
		factory = memory.NewFactory(accounts, listings, reservations).WithLockWait(cfg.LockWait)
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		app.accounts = accounts
		app.listings = listings
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		app.closers = append(app.closers, client.Close)
		idStore = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}

	commandBus := commands.NewInMemoryBus()
	bookingHandler := &bookingapp.RequestBookingHandler{
		UoWFactory: factory,
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), bookingHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, meapp.ListGuestReservationsQuery{}.Key(), &meapp.ListGuestReservationsHandler{UoWFactory: factory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware},
		Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Me:           ginserver.MeHandler{Queries: queryBusWithMiddleware, Logger: logger},
	}
	return app, nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

type fixtureFile struct {
	Accounts []accountFixture `json:"accounts"`
	Listings []listingFixture `json:"listings"`
}

type accountFixture struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
}

type listingFixture struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Title       string `json:"title"`
	NightlyRate string `json:"nightly_rate"`
}

func (a *application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures.Accounts {
		balance, err := decimal.NewFromString(fx.Balance)
		if err != nil {
			logger.Error("account fixture invalid", "account_id", fx.ID, "error", err)
			continue
		}
		acct, err := domainaccount.New(domainaccount.AccountID(fx.ID), balance)
		if err != nil {
			logger.Error("account fixture invalid", "account_id", fx.ID, "error", err)
			continue
		}
		if err := a.accounts.Save(ctx, acct); err != nil {
			logger.Error("cannot store fixture account", "account_id", fx.ID, "error", err)
			continue
		}
		logger.Info("account fixture imported", "account_id", fx.ID)
	}
	for _, fx := range fixtures.Listings {
		rate, err := decimal.NewFromString(fx.NightlyRate)
		if err != nil {
			logger.Error("listing fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		lst, err := domainlisting.New(domainlisting.ListingID(fx.ID), domainlisting.HostID(fx.Host), fx.Title, rate, now)
		if err != nil {
			logger.Error("listing fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.listings.Save(ctx, lst); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", fx.ID)
	}
	return nil
}
