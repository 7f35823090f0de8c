package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS potential_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	url         TEXT NOT NULL,
	category    TEXT NOT NULL,
	root_url    TEXT NOT NULL,
	create_time DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS potential_customer (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	company_name         TEXT NOT NULL,
	industry             TEXT NOT NULL,
	revenue              TEXT NOT NULL,
	size                 TEXT NOT NULL,
	stakeholder_name     TEXT,
	stakeholder_position TEXT,
	stakeholder_email    TEXT,
	stakeholder_phone    TEXT,
	stakeholder_link     TEXT,
	reasoning            TEXT,
	create_time          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_potential_events_root_url ON potential_events(root_url);
CREATE INDEX IF NOT EXISTS idx_potential_customer_create_time ON potential_customer(create_time);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertEvents(ctx context.Context, events []model.CandidateEvent, rootURL string) (int, error) {
	n, err := s.insertBatch(ctx, "potential_events", eventColumns, eventRows(events, rootURL, now()))
	return n, eris.Wrap(err, "sqlite: insert events")
}

func (s *SQLiteStore) InsertCustomers(ctx context.Context, customers []model.PrioritizedCustomer) (int, error) {
	n, err := s.insertBatch(ctx, "potential_customer", customerColumns, customerRows(customers, now()))
	return n, eris.Wrap(err, "sqlite: insert customers")
}

// insertBatch writes rows in one transaction; any failure rolls back the
// whole batch.
func (s *SQLiteStore) insertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" ("+strings.Join(columns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return 0, eris.Wrapf(err, "prepare insert into %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "insert row %d into %s", i, table)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit tx")
	}
	return len(rows), nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, rootURL string, limit int) ([]model.StoredEvent, error) {
	query := `SELECT id, name, url, category, root_url, create_time FROM potential_events`
	args := []any{}
	if rootURL != "" {
		query += ` WHERE root_url = ?`
		args = append(args, rootURL)
	}
	query += ` ORDER BY create_time DESC, id DESC LIMIT ?`
	args = append(args, listLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.StoredEvent
	for rows.Next() {
		var e model.StoredEvent
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.Category, &e.RootURL, &e.CreateTime); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate events")
}

func (s *SQLiteStore) ListCustomers(ctx context.Context, limit int) ([]model.StoredCustomer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, industry, revenue, size,
			COALESCE(stakeholder_name, ''), COALESCE(stakeholder_position, ''),
			COALESCE(stakeholder_email, ''), COALESCE(stakeholder_phone, ''),
			COALESCE(stakeholder_link, ''), COALESCE(reasoning, ''), create_time
		FROM potential_customer ORDER BY create_time DESC, id DESC LIMIT ?`,
		listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list customers")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.StoredCustomer
	for rows.Next() {
		var c model.StoredCustomer
		if err := rows.Scan(
			&c.ID, &c.CompanyName, &c.Industry, &c.Revenue, &c.Size,
			&c.StakeholderName, &c.StakeholderPosition,
			&c.StakeholderEmail, &c.StakeholderPhone,
			&c.StakeholderLink, &c.Reasoning, &c.CreateTime,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate customers")
}
