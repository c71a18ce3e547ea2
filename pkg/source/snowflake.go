// pkg/source/snowflake.go
package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// SnowflakeReader pulls raw service-order rows out of Snowflake and
// materializes them as a Table for the pipeline.
type SnowflakeReader struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeReader opens a Snowflake connection and verifies it.
func NewSnowflakeReader(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("snowflake-reader")

	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d", int(cfg.QueryTimeout.Seconds())))
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	return &SnowflakeReader{db: db, logger: logger, cfg: cfg}, nil
}

// Close releases the connection pool.
func (r *SnowflakeReader) Close() error {
	return r.db.Close()
}

// ReadOrders fetches every row of the configured orders table.
func (r *SnowflakeReader) ReadOrders(ctx context.Context) (*model.Table, error) {
	query := fmt.Sprintf("SELECT * FROM %s", r.cfg.OrdersTable)

	queryCtx := ctx
	if r.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, r.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := r.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders table %s: %w", r.cfg.OrdersTable, err)
	}
	defer rows.Close()

	table, err := tableFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders from %s: %w", r.cfg.OrdersTable, err)
	}

	r.logger.Info("Read orders from Snowflake",
		zap.String("table", r.cfg.OrdersTable),
		zap.Int("rows", table.NumRows()),
		zap.Duration("elapsed", time.Since(start)))
	return table, nil
}

// tableFromRows scans a result set into a Table, keeping the source
// column order.
func tableFromRows(rows *sql.Rows) (*model.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	table := model.NewTable(columns)
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(model.Row, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		table.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result set: %w", err)
	}

	return table, nil
}
