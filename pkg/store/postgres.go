// pkg/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
	"github.com/fulfillment-ops/order-ingress/pkg/normalize"
)

// Registry is the system of record for processed orders. It feeds the
// deduplication stage with already-known business keys and receives the
// finalized rows after a run.
type Registry struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewRegistry connects to PostgreSQL and verifies the connection.
func NewRegistry(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("registry")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	applyConnectionSettings(db.DB, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)

	if cfg.StatementTimeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds())); err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := pingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	r := &Registry{db: db, logger: logger, cfg: cfg}
	if err := r.setupTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// DB exposes the underlying connection for callers that need it.
func (r *Registry) DB() *sqlx.DB {
	return r.db
}

// Close releases the connection pool.
func (r *Registry) Close() error {
	r.logger.Info("Closing PostgreSQL connection")
	return r.db.Close()
}

// setupTables ensures the order and activity tables exist.
func (r *Registry) setupTables(ctx context.Context) error {
	createOrders := `
		CREATE TABLE IF NOT EXISTS public.processed_orders (
			id SERIAL PRIMARY KEY,
			mode TEXT NOT NULL,
			business_key TEXT NOT NULL,
			workorder TEXT,
			order_no TEXT,
			service_no TEXT,
			crm_order_type TEXT,
			status TEXT,
			address TEXT,
			customer_name TEXT,
			workzone TEXT,
			booking_date TEXT,
			contact_number TEXT,
			mitra TEXT,
			date_created TEXT,
			inserted_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (mode, business_key)
		)
	`
	if _, err := r.db.ExecContext(ctx, createOrders); err != nil {
		return fmt.Errorf("failed to create processed_orders table: %w", err)
	}

	createActivity := `
		CREATE TABLE IF NOT EXISTS public.activity_log (
			id SERIAL PRIMARY KEY,
			mode TEXT NOT NULL,
			action TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			detail TEXT,
			recorded_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createActivity); err != nil {
		return fmt.Errorf("failed to create activity_log table: %w", err)
	}

	r.logger.Info("Ensured registry tables exist")
	return nil
}

// ExistingIDs returns every stored business key for a mode. The values
// come back as stored; the deduplication stage normalizes them before
// comparison.
func (r *Registry) ExistingIDs(ctx context.Context, mode model.Mode) ([]string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var ids []string
	err := r.db.SelectContext(queryCtx, &ids,
		"SELECT business_key FROM public.processed_orders WHERE mode = $1", string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing IDs for mode %s: %w", mode, err)
	}

	r.logger.Info("Fetched existing business keys",
		zap.String("mode", string(mode)),
		zap.Int("count", len(ids)))
	return ids, nil
}

// SaveOrders inserts finalized rows for a mode inside one transaction.
// Rows whose business key is already stored are skipped rather than
// duplicated. Returns the number of rows actually inserted.
func (r *Registry) SaveOrders(ctx context.Context, mode model.Mode, t *model.Table) (int, error) {
	keyColumn := model.ColOrderNo
	if mode != model.ModeWSA {
		keyColumn = model.ColWorkorder
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO public.processed_orders (
			mode, business_key, workorder, order_no, service_no,
			crm_order_type, status, address, customer_name, workzone,
			booking_date, contact_number, mitra, date_created
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (mode, business_key) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := 0; i < t.NumRows(); i++ {
		key := normalize.CleanString(t.Value(i, keyColumn), normalize.Uppercase())
		if key == "" {
			continue
		}

		result, err := stmt.ExecContext(ctx,
			string(mode),
			key,
			cellOrNil(t, i, model.ColWorkorder),
			cellOrNil(t, i, model.ColOrderNo),
			cellOrNil(t, i, model.ColServiceNo),
			cellOrNil(t, i, model.ColCRMOrderType),
			cellOrNil(t, i, model.ColStatus),
			cellOrNil(t, i, model.ColAddress),
			cellOrNil(t, i, model.ColCustomerName),
			cellOrNil(t, i, model.ColWorkzone),
			cellOrNil(t, i, model.ColBookingDate),
			cellOrNil(t, i, model.ColContact),
			cellOrNil(t, i, model.ColMitra),
			cellOrNil(t, i, model.ColDateCreated),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert order %s: %w", key, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit order inserts: %w", err)
	}

	r.logger.Info("Saved processed orders",
		zap.String("mode", string(mode)),
		zap.Int("inserted", inserted),
		zap.Int("offered", t.NumRows()))
	return inserted, nil
}

// AppendActivity records one pipeline action in the activity log.
func (r *Registry) AppendActivity(ctx context.Context, entry model.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.activity_log (mode, action, row_count, detail, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(entry.Mode), entry.Action, entry.Rows, entry.Detail, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

// cellOrNil maps empty and null cells to SQL NULL.
func cellOrNil(t *model.Table, i int, column string) interface{} {
	if !t.HasColumn(column) {
		return nil
	}
	v := t.Value(i, column)
	if model.IsNull(v) {
		return nil
	}
	return fmt.Sprint(v)
}

// applyConnectionSettings configures the connection pool.
func applyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// pingWithTimeout verifies connectivity within the given window.
func pingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}
