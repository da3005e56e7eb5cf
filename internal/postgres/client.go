package postgres

import (
	"context"
	"time"

	"github.com/elevatehq/elevate-api/internal/config"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type txKey struct{}

// IClient is the database access boundary used by repositories. It is a
// process-wide singleton: initialized once at startup and shared across
// requests (no per-call construction).
type IClient interface {
	// Querier returns the handle for the current context: the transaction
	// when one is open, the root connection otherwise.
	Querier(ctx context.Context) *gorm.DB
	// WithTx runs fn inside a transaction. Nested calls join the outer
	// transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Client struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewClient wraps an open gorm handle.
func NewClient(db *gorm.DB, logger *logger.Logger) IClient {
	return &Client{db: db, logger: logger}
}

func (c *Client) Querier(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return c.db.WithContext(ctx)
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// NewDB opens the Postgres connection pool.
// TranslateError is enabled so unique violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific error types.
func NewDB(cfg *config.Configuration, log *logger.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.Logging.Level == "debug" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), gormCfg)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to postgres").
			WithReportableDetails(map[string]interface{}{
				"host":   cfg.Postgres.Host,
				"port":   cfg.Postgres.Port,
				"dbname": cfg.Postgres.DBName,
			}).
			Mark(ierr.ErrDatabase)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to access underlying sql.DB").
			Mark(ierr.ErrDatabase)
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinute) * time.Minute)

	log.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"dbname", cfg.Postgres.DBName,
	)

	return db, nil
}
