package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectEntries = `SELECT identifier, id_type, uri
	FROM ble_uri_index
	ORDER BY priority, identifier`

// LoadPostgres reads the ble_uri_index table into a Static index.
func LoadPostgres(ctx context.Context, q Querier) (*Static, error) {
	rows, err := q.Query(ctx, selectEntries)
	if err != nil {
		return nil, fmt.Errorf("query ble_uri_index: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.Identifier, &e.Type, &e.URI)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan ble_uri_index: %w", err)
	}
	return NewStatic(entries)
}
