// Package postgres implements the document store on PostgreSQL. Documents
// live in a single JSONB table; change subscriptions ride LISTEN/NOTIFY, with
// each notification triggering a re-run of the subscribed query so consumers
// always receive the full current result set.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campusboard/internal/docstore"
)

// notifyChannel is the shared NOTIFY channel; payloads carry the collection
// name so subscribers can skip unrelated changes.
const notifyChannel = "campusboard_docs"

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	db  *sql.DB
	dsn string
	log *slog.Logger
}

// New builds a Postgres-backed store. The DSN is kept for the dedicated
// LISTEN connections each subscription opens.
func New(db *sql.DB, dsn string, log *slog.Logger) *Store {
	return &Store{db: db, dsn: dsn, log: log}
}

var _ docstore.Store = (*Store)(nil)

// Open connects to Postgres, verifies the connection, and ensures the
// schema. Convenience for process wiring; tests construct via New.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := New(db, dsn, log)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool. Subscriptions hold their own LISTEN
// connections and are closed by their cancel functions.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the documents table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			id          uuid PRIMARY KEY,
			collection  text NOT NULL,
			fields      jsonb NOT NULL,
			create_time timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS documents_collection_idx
			ON documents (collection, create_time DESC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id         string
			raw        []byte
			createTime time.Time
		)
		if err := rows.Scan(&id, &raw, &createTime); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode document fields: %w", err)
		}
		docs = append(docs, docstore.Document{
			ID:         id,
			Collection: q.Collection,
			Fields:     fields,
			CreateTime: createTime,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (docstore.Document, error) {
	plain := make(map[string]any, len(fields))
	var pending []string
	for k, v := range fields {
		if v == docstore.ServerTimestamp {
			pending = append(pending, k)
			continue
		}
		plain[k] = v
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encode document fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	var createTime time.Time
	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (id, collection, fields, create_time)
		VALUES ($1, $2, $3, now())
		RETURNING create_time
	`, id, collection, raw).Scan(&createTime)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("insert document: %w", err)
	}

	// Server-assigned timestamp fields are stamped with the commit instant
	// the database just chose.
	if len(pending) > 0 {
		stamped := make(map[string]any, len(pending))
		for _, k := range pending {
			stamped[k] = createTime.UTC()
		}
		patch, err := json.Marshal(stamped)
		if err != nil {
			return docstore.Document{}, fmt.Errorf("encode timestamp patch: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET fields = fields || $2::jsonb WHERE id = $1
		`, id, patch); err != nil {
			return docstore.Document{}, fmt.Errorf("stamp server timestamps: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return docstore.Document{}, fmt.Errorf("notify change: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return docstore.Document{}, fmt.Errorf("commit create: %w", err)
	}

	doc := docstore.Document{
		ID:         id,
		Collection: collection,
		Fields:     plain,
		CreateTime: createTime,
	}
	for _, k := range pending {
		doc.Fields[k] = createTime.UTC()
	}
	return doc, nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	if _, _, err := buildSelect(q); err != nil {
		return nil, err
	}

	listener := pq.NewListener(s.dsn, 500*time.Millisecond, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		if err != nil && s.log != nil {
			s.log.Warn("docstore listener event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	stop := make(chan struct{})
	go s.pump(ctx, q, fn, listener, stop)

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
	}
	return cancel, nil
}

// pump delivers the initial snapshot, then re-runs the query after every
// relevant notification. A reconnect (nil notification) also triggers a
// re-run since changes may have been missed.
func (s *Store) pump(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc, listener *pq.Listener, stop <-chan struct{}) {
	defer func() { _ = listener.Close() }()

	deliver := func() {
		docs, err := s.Query(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fn(docstore.Snapshot{Err: err})
			return
		}
		fn(docstore.Snapshot{Docs: docs})
	}

	deliver()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n != nil && n.Extra != q.Collection {
				continue
			}
			deliver()
		}
	}
}

// buildSelect renders a Query as SQL. Filter and order fields are restricted
// to simple identifiers since JSON keys cannot be bound as parameters.
func buildSelect(q docstore.Query) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT id, fields, create_time FROM documents WHERE collection = $1")
	args = append(args, q.Collection)

	for _, f := range q.Filters {
		if !identPattern.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		args = append(args, fmt.Sprintf("%v", f.Value))
		fmt.Fprintf(&sb, " AND fields->>'%s' = $%d", f.Field, len(args))
	}
	if q.OrderBy != "" {
		if !identPattern.MatchString(q.OrderBy) {
			return "", nil, fmt.Errorf("invalid order field %q", q.OrderBy)
		}
		// Order fields hold RFC 3339 timestamps. Compared as text, values of
		// mixed sub-second precision sort wrong within the same second, so
		// compare as timestamptz.
		fmt.Fprintf(&sb, " ORDER BY (fields->>'%s')::timestamptz", q.OrderBy)
		if q.Desc {
			sb.WriteString(" DESC NULLS FIRST")
		} else {
			sb.WriteString(" NULLS LAST")
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}
