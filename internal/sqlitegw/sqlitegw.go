// Package sqlitegw provides a SQLite-backed reference implementation of
// the gateway contract, with an in-process change bus standing in for a
// server push channel. It backs the demo CLI and integration tests; rows
// are stored as JSON documents keyed by collection and id.
package sqlitegw

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Moe03/suparisma/pkg/liveview"
	"github.com/Moe03/suparisma/pkg/predicate"
	"github.com/Moe03/suparisma/pkg/types"

	"github.com/google/uuid"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_created
	ON documents (collection, created_at);
`

// Gateway implements types.Gateway over a local SQLite database.
type Gateway struct {
	db  *sql.DB
	log liveview.Logger
	bus *bus

	keyField     string
	createdField string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway's logger.
func WithLogger(log liveview.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithKeyField overrides the identifier field name (default "id").
func WithKeyField(field string) Option {
	return func(g *Gateway) { g.keyField = field }
}

// WithCreatedField overrides the creation-timestamp field name
// (default "createdAt").
func WithCreatedField(field string) Option {
	return func(g *Gateway) { g.createdField = field }
}

// Open creates or opens the database at path. Use ":memory:" for an
// ephemeral instance.
func Open(path string, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite gateway: db path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite gateway: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: open db: %w", err)
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	g := &Gateway{
		db:           db,
		log:          liveview.NopLogger(),
		bus:          newBus(),
		keyField:     "id",
		createdField: "createdAt",
	}
	for _, opt := range opts {
		opt(g)
	}
	g.bus.log = g.log

	if err := g.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return g, nil
}

func (g *Gateway) init() error {
	if _, err := g.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite gateway: set busy timeout: %w", err)
	}
	if _, err := g.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite gateway: create schema: %w", err)
	}
	return nil
}

// Close shuts the change bus down and closes the database.
func (g *Gateway) Close() error {
	g.bus.closeAll()
	return g.db.Close()
}

// loadCollection reads and decodes every document of one collection.
func (g *Gateway) loadCollection(ctx context.Context, table string) ([]types.Row, error) {
	rows, err := g.db.QueryContext(ctx,
		"SELECT doc FROM documents WHERE collection = ? ORDER BY created_at, id", table)
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: select: %w", err)
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite gateway: scan: %w", err)
		}
		var row types.Row
		if err := json.Unmarshal([]byte(doc), &row); err != nil {
			g.log.Warn("skipping undecodable document", "collection", table, "error", err)
			continue
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Select loads the collection and evaluates filter, order, and window in
// memory. The operator set is richer than what maps cleanly onto SQL over
// JSON documents, so the compiled matcher is the single source of truth
// for matching semantics here as everywhere else.
func (g *Gateway) Select(ctx context.Context, table string, filter types.Predicate, order types.OrderSpec, limit, offset int) ([]types.Row, error) {
	matcher, err := predicate.Compile(filter)
	if err != nil {
		return nil, err
	}
	all, err := g.loadCollection(ctx, table)
	if err != nil {
		return nil, err
	}

	var out []types.Row
	for _, row := range all {
		if matcher(row) {
			out = append(out, row)
		}
	}
	cmp := predicate.CompileComparator(order)
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })

	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of rows matching filter.
func (g *Gateway) Count(ctx context.Context, table string, filter types.Predicate) (int, error) {
	if filter.IsEmpty() {
		var n int
		err := g.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM documents WHERE collection = ?", table).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("sqlite gateway: count: %w", err)
		}
		return n, nil
	}

	matcher, err := predicate.Compile(filter)
	if err != nil {
		return 0, err
	}
	all, err := g.loadCollection(ctx, table)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range all {
		if matcher(row) {
			n++
		}
	}
	return n, nil
}

// Insert stores a new row, assigning id and creation timestamp when the
// caller did not, and publishes an insert event.
func (g *Gateway) Insert(ctx context.Context, table string, row types.Row) (types.Row, error) {
	stored := row.Clone()
	if stored == nil {
		stored = types.Row{}
	}
	if _, ok := stored.Get(g.keyField); !ok {
		stored[g.keyField] = uuid.NewString()
	}
	created, ok := stored[g.createdField].(string)
	if !ok {
		created = time.Now().UTC().Format(time.RFC3339Nano)
		stored[g.createdField] = created
	}

	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: encode row: %w", err)
	}
	_, err = g.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, doc, created_at) VALUES (?, ?, ?, ?)",
		table, fmt.Sprint(stored[g.keyField]), string(doc), created)
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: insert: %w", err)
	}

	g.bus.publish(table, types.ChangeEvent{Type: types.EventInsert, New: stored})
	return stored, nil
}

// getOne fetches a single decoded document by key.
func (g *Gateway) getOne(ctx context.Context, table string, key any) (types.Row, error) {
	var doc string
	err := g.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE collection = ? AND id = ?",
		table, fmt.Sprint(key)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: get: %w", err)
	}
	var row types.Row
	if err := json.Unmarshal([]byte(doc), &row); err != nil {
		return nil, fmt.Errorf("sqlite gateway: decode row: %w", err)
	}
	return row, nil
}

// UpdateOne merges fields into the stored row and publishes an update
// event carrying both versions.
func (g *Gateway) UpdateOne(ctx context.Context, table string, key any, fields types.Row) (types.Row, error) {
	old, err := g.getOne(ctx, table, key)
	if err != nil {
		return nil, err
	}

	updated := old.Clone()
	for f, v := range fields {
		if f == g.keyField {
			continue // identifiers are immutable
		}
		updated[f] = v
	}
	doc, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: encode row: %w", err)
	}
	_, err = g.db.ExecContext(ctx,
		"UPDATE documents SET doc = ? WHERE collection = ? AND id = ?",
		string(doc), table, fmt.Sprint(key))
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: update: %w", err)
	}

	g.bus.publish(table, types.ChangeEvent{Type: types.EventUpdate, New: updated, Old: old})
	return updated, nil
}

// DeleteOne removes the row and publishes a delete event.
func (g *Gateway) DeleteOne(ctx context.Context, table string, key any) (types.Row, error) {
	old, err := g.getOne(ctx, table, key)
	if err != nil {
		return nil, err
	}
	_, err = g.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		table, fmt.Sprint(key))
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: delete: %w", err)
	}

	g.bus.publish(table, types.ChangeEvent{Type: types.EventDelete, Old: old})
	return old, nil
}

// SubscribeChanges registers handler on the in-process change bus. The
// filter string is accepted for contract compatibility but not evaluated:
// every event of the collection is delivered and consumers re-check their
// own predicate, which the engine does for inserts anyway.
func (g *Gateway) SubscribeChanges(_ context.Context, table string, filter string, handler func(types.ChangeEvent)) (types.ChangeSubscription, error) {
	if filter != "" {
		g.log.Debug("subscription filter not evaluated locally", "collection", table, "filter", filter)
	}
	return g.bus.subscribe(table, handler), nil
}

// SearchByFieldPrefix matches field values by prefix, case-insensitively,
// pushed down to SQL over the JSON documents.
func (g *Gateway) SearchByFieldPrefix(ctx context.Context, table string, field, prefix string) ([]types.Row, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT doc FROM documents
		 WHERE collection = ?
		   AND lower(json_extract(doc, ?)) LIKE lower(?) || '%' ESCAPE '\'`,
		table, "$."+field, escapeLike(prefix))
	if err != nil {
		return nil, fmt.Errorf("sqlite gateway: search: %w", err)
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite gateway: scan: %w", err)
		}
		var row types.Row
		if err := json.Unmarshal([]byte(doc), &row); err != nil {
			g.log.Warn("skipping undecodable document", "collection", table, "error", err)
			continue
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
