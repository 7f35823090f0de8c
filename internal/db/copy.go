package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, c Copier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := c.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}

// InsertBatch copies rows into table inside a single transaction. Either
// every row is committed or none is: any failure rolls the batch back.
func InsertBatch(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: begin batch into %s", table)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := CopyFrom(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, err
	}
	if n != int64(len(rows)) {
		return 0, eris.Errorf("db: COPY INTO %s wrote %d of %d rows", table, n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: commit batch into %s", table)
	}
	return n, nil
}
