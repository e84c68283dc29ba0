package repositories

import (
	"context"
	"fmt"
	"time"

	"focustache/internal/config"
	"focustache/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles the repositories of one backing database with its lifecycle.
type Store struct {
	Users  UserRepository
	Tasks  TaskRepository
	Driver string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backing database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the database selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewInMemoryStore(), nil
	case config.DriverSQLite:
		return openGORM(sqlite.Open(cfg.DSN), cfg)
	case config.DriverPostgres:
		return openGORM(postgres.Open(cfg.DSN), cfg)
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewInMemoryStore returns a store kept entirely in process memory.
func NewInMemoryStore() *Store {
	return &Store{
		Users:  NewInMemoryUserRepository(),
		Tasks:  NewInMemoryTaskRepository(),
		Driver: config.DriverMemory,
	}
}

func openGORM(dialector gorm.Dialector, cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s connection pool: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	store, err := NewGORMStore(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	store.Driver = cfg.Driver
	return store, nil
}

// NewGORMStore migrates the schema on db and wraps it in a Store.
func NewGORMStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	return &Store{
		Users:  NewGORMUserRepository(db),
		Tasks:  NewGORMTaskRepository(db),
		Driver: db.Dialector.Name(),
		ping:   sqlDB.PingContext,
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.MongoURI)
	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store, err := NewMongoStore(connectCtx, client.Database(cfg.MongoDatabase))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewMongoStore ensures the indexes on db and wraps it in a Store.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	users := NewMongoUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	tasks := NewMongoTaskRepository(db)
	if err := tasks.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	client := db.Client()
	return &Store{
		Users:  users,
		Tasks:  tasks,
		Driver: config.DriverMongo,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}
