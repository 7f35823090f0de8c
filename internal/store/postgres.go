package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/db"
	"github.com/sells-group/prospector/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	dsn     string
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, dsn: connString, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate(_ context.Context) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: open migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, s.dsn)
	if err != nil {
		return eris.Wrap(err, "postgres: create migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			zap.L().Warn("postgres: close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "postgres: migrate up")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// InsertEvents stores events for rootURL in one transaction.
func (s *PostgresStore) InsertEvents(ctx context.Context, events []model.CandidateEvent, rootURL string) (int, error) {
	n, err := db.InsertBatch(ctx, s.pool, "potential_events", eventColumns, eventRows(events, rootURL, now()))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert events")
	}
	return int(n), nil
}

// InsertCustomers stores customers in one transaction.
func (s *PostgresStore) InsertCustomers(ctx context.Context, customers []model.PrioritizedCustomer) (int, error) {
	n, err := db.InsertBatch(ctx, s.pool, "potential_customer", customerColumns, customerRows(customers, now()))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert customers")
	}
	return int(n), nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, rootURL string, limit int) ([]model.StoredEvent, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if rootURL == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, name, url, category, root_url, create_time FROM potential_events ORDER BY create_time DESC, id DESC LIMIT $1`,
			listLimit(limit))
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, name, url, category, root_url, create_time FROM potential_events WHERE root_url = $1 ORDER BY create_time DESC, id DESC LIMIT $2`,
			rootURL, listLimit(limit))
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var out []model.StoredEvent
	for rows.Next() {
		var e model.StoredEvent
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.Category, &e.RootURL, &e.CreateTime); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate events")
}

func (s *PostgresStore) ListCustomers(ctx context.Context, limit int) ([]model.StoredCustomer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_name, industry, revenue, size,
			COALESCE(stakeholder_name, ''), COALESCE(stakeholder_position, ''),
			COALESCE(stakeholder_email, ''), COALESCE(stakeholder_phone, ''),
			COALESCE(stakeholder_link, ''), COALESCE(reasoning, ''), create_time
		FROM potential_customer ORDER BY create_time DESC, id DESC LIMIT $1`,
		listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list customers")
	}
	defer rows.Close()

	var out []model.StoredCustomer
	for rows.Next() {
		var c model.StoredCustomer
		if err := rows.Scan(
			&c.ID, &c.CompanyName, &c.Industry, &c.Revenue, &c.Size,
			&c.StakeholderName, &c.StakeholderPosition,
			&c.StakeholderEmail, &c.StakeholderPhone,
			&c.StakeholderLink, &c.Reasoning, &c.CreateTime,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate customers")
}
