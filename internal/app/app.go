package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/fieldbook/internal/api"
	"github.com/Freeeeeet/fieldbook/internal/config"
	"github.com/Freeeeeet/fieldbook/internal/events"
	"github.com/Freeeeeet/fieldbook/internal/metrics"
	"github.com/Freeeeeet/fieldbook/internal/notification"
	"github.com/Freeeeeet/fieldbook/internal/seed"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

// App собранное приложение: хранилище, сервисы, подписчики событий и HTTP сервер
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	storage   *Storage
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	publisher message.Publisher
	redis     *redis.Client

	Dispatcher   *events.Dispatcher
	Mailbox      *notification.Mailbox
	Bookings     *service.BookingService
	Availability *service.AvailabilityService

	scheduler *Scheduler
	server    *http.Server
}

// New собирает приложение по конфигурации
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		storage:    storage,
		registry:   prometheus.NewRegistry(),
		Dispatcher: events.NewDispatcher(logger),
		Mailbox:    notification.NewMailbox(storage.Fields),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	locker := service.NewFieldLocker()
	a.Availability = service.NewAvailabilityService(storage.Fields, storage.Slots, locker, logger)
	a.Bookings = service.NewBookingService(storage.Bookings, storage.Fields, storage.Slots, a.Availability, locker, a.Dispatcher, logger)

	if err := a.subscribe(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := seed.Apply(ctx, f, storage.Fields, a.Availability, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.scheduler = NewScheduler(observedCompleter{next: a.Bookings, metrics: a.metrics}, cfg.CompletionInterval, logger)

	server := api.NewServer(a.Bookings, a.Availability, storage.Fields, storage.Slots, a.Mailbox, logger)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(a.registry, a.metrics.Middleware),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

// subscribe подключает наблюдателей к диспетчеру событий
func (a *App) subscribe() error {
	a.Dispatcher.Subscribe("mailbox", a.Mailbox)
	a.Dispatcher.Subscribe("metrics", a.metrics)

	wmLogger := events.NewZapLoggerAdapter(a.logger)
	if a.cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		publisher, err := events.NewRedisPublisher(a.redis, wmLogger)
		if err != nil {
			return err
		}
		a.publisher = publisher
		a.logger.Info("Publishing events to Redis Streams", zap.String("addr", a.cfg.RedisAddr))
	} else {
		a.publisher = events.NewGoChannel(wmLogger)
	}
	a.Dispatcher.Subscribe("broker", events.NewMessagePublisher(a.publisher, a.cfg.EventsTopicPrefix))

	if a.cfg.TelegramToken != "" {
		b, err := notification.NewBot(a.cfg.TelegramToken)
		if err != nil {
			return err
		}
		a.Dispatcher.Subscribe("telegram", notification.NewTelegramNotifier(b, a.storage.Fields, a.cfg.TelegramChats, a.logger))
		a.logger.Info("Telegram notifications enabled", zap.Int("chats", len(a.cfg.TelegramChats)))
	}

	return nil
}

// Handler HTTP обработчик приложения
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает HTTP и фоновые задачи до отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.scheduler.Start(gctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.logger.Info("Shutting down HTTP server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.scheduler.Stop()
	return err
}

// Close освобождает внешние ресурсы
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	a.storage.Close()
}

// observedCompleter учитывает прогоны закрытия бронирований в метриках
type observedCompleter struct {
	next    BookingCompleter
	metrics *metrics.Metrics
}

func (c observedCompleter) CompleteFinished(ctx context.Context) (int, error) {
	n, err := c.next.CompleteFinished(ctx)
	if err == nil {
		c.metrics.ObserveCompletion(n)
	}
	return n, err
}
