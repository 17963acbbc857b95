package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS graph_nodes (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	project TEXT NOT NULL,
	kind    TEXT NOT NULL,
	props   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS graph_edges (
	project TEXT NOT NULL,
	source  INTEGER NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
	rel     TEXT NOT NULL,
	target  INTEGER NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
	UNIQUE(source, rel, target)
);

CREATE INDEX IF NOT EXISTS idx_graph_nodes_project_kind ON graph_nodes(project, kind);
CREATE INDEX IF NOT EXISTS idx_graph_edges_project ON graph_edges(project);
CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges(target);
`

// SQLiteStore implements Store on a single SQLite file. SQLite has no
// native MERGE, so merges are a lookup followed by a conditional insert
// inside one transaction.
type SQLiteStore struct {
	conn *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteOptions = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// sqliteDSN appends the connection options to a path that may already
// carry its own query string.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteOptions
	}
	return dsn + "?" + sqliteOptions
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("graph: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: ping sqlite: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: apply sqlite schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Query runs SQL with named parameters (":name") and returns every row.
func (s *SQLiteStore) Query(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	args := make([]any, 0, len(params))
	for k, v := range params {
		args = append(args, sql.Named(k, v))
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Reset deletes the project's edges and nodes.
func (s *SQLiteStore) Reset(ctx context.Context, project string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_edges WHERE project = ?`, project); err != nil {
		return fmt.Errorf("graph: reset edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_nodes WHERE project = ?`, project); err != nil {
		return fmt.Errorf("graph: reset nodes: %w", err)
	}
	return tx.Commit()
}

// CreateNode inserts a node row with props stored as JSON.
func (s *SQLiteStore) CreateNode(ctx context.Context, project, kind string, props map[string]any) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("graph: encode %s props: %w", kind, err)
	}
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO graph_nodes (project, kind, props) VALUES (?, ?, ?)`,
		project, kind, string(data)); err != nil {
		return fmt.Errorf("graph: create %s: %w", kind, err)
	}
	return nil
}

// MergeNode inserts the node unless a node with the same kind and key
// value already exists under project.
func (s *SQLiteStore) MergeNode(ctx context.Context, project string, ref NodeRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids, err := lookupNodes(ctx, tx, project, ref)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		data, _ := json.Marshal(map[string]any{ref.Key: ref.Value})
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO graph_nodes (project, kind, props) VALUES (?, ?, ?)`,
			project, ref.Kind, string(data)); err != nil {
			return fmt.Errorf("graph: merge %s: %w", ref.Kind, err)
		}
	}
	return tx.Commit()
}

// MergeEdge inserts an edge for every matching (from, to) pair, ignoring
// pairs that are already linked.
func (s *SQLiteStore) MergeEdge(ctx context.Context, project string, from NodeRef, rel string, to NodeRef) error {
	if err := validateRef(from); err != nil {
		return err
	}
	if err := validateRef(to); err != nil {
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sources, err := lookupNodes(ctx, tx, project, from)
	if err != nil {
		return err
	}
	targets, err := lookupNodes(ctx, tx, project, to)
	if err != nil {
		return err
	}
	for _, src := range sources {
		for _, dst := range targets {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO graph_edges (project, source, rel, target) VALUES (?, ?, ?, ?)`,
				project, src, rel, dst); err != nil {
				return fmt.Errorf("graph: merge %s edge: %w", rel, err)
			}
		}
	}
	return tx.Commit()
}

// Tally counts nodes per kind.
func (s *SQLiteStore) Tally(ctx context.Context, project string) ([]KindCount, error) {
	rows, err := s.Query(ctx, `
		SELECT kind, count(*) AS count
		FROM graph_nodes
		WHERE project = :project
		GROUP BY kind
	`, map[string]any{"project": project})
	if err != nil {
		return nil, fmt.Errorf("graph: tally: %w", err)
	}
	out := make([]KindCount, 0, len(rows))
	for _, row := range rows {
		kind := asString(row["kind"])
		count, _ := row["count"].(int64)
		out = append(out, KindCount{Kinds: []string{kind}, Count: count})
	}
	sortTally(out)
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close(_ context.Context) error {
	return s.conn.Close()
}

func lookupNodes(ctx context.Context, tx *sql.Tx, project string, ref NodeRef) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM graph_nodes
		WHERE project = ? AND kind = ? AND json_extract(props, ?) = ?
	`, project, ref.Kind, "$."+ref.Key, ref.Value)
	if err != nil {
		return nil, fmt.Errorf("graph: lookup %s: %w", ref.Kind, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}
