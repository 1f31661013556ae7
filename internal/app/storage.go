package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/config"
	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/repository"
	"github.com/Freeeeeet/fieldbook/internal/repository/memory"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

// FieldStore справочник полей с записью (нужен для сида)
type FieldStore interface {
	service.FieldRepository
	Save(ctx context.Context, field *model.Field) error
	FindByManager(ctx context.Context, manager string) ([]*model.Field, error)
}

// Storage набор репозиториев одного хранилища
type Storage struct {
	Bookings service.BookingRepository
	Fields   FieldStore
	Slots    service.SlotRepository

	close func()
}

// Close освобождает соединения хранилища
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage выбирает PostgreSQL при заданном DB_DSN, иначе хранилище в памяти.
// Для PostgreSQL перед возвратом применяются миграции.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if !cfg.UseDatabase() {
		logger.Info("Using in-memory storage")
		store := memory.NewStore()
		return &Storage{
			Bookings: store.Bookings(),
			Fields:   store.Fields(),
			Slots:    store.Slots(),
		}, nil
	}

	pool, err := OpenPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Using PostgreSQL storage")

	return &Storage{
		Bookings: repository.NewBookingRepository(pool),
		Fields:   repository.NewFieldRepository(pool),
		Slots:    repository.NewSlotRepository(pool, logger),
		close:    pool.Close,
	}, nil
}

// OpenPool подключается к базе и проверяет соединение
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
