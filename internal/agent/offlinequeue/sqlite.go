// Package offlinequeue is the device-side buffer for samples that could not be
// delivered. Entries live in a SQLite file so they survive agent restarts; the
// queue is bounded and always drained oldest first.
package offlinequeue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// DefaultCapacity is the number of entries kept before the oldest is evicted.
const DefaultCapacity = 100

// Entry is one queued sample. Payload is the encoded request body.
type Entry struct {
	Seq        int64
	ID         string
	Payload    []byte
	EnqueuedAt time.Time
	Attempts   int
}

// DeliverFunc delivers a single entry. A nil return removes the entry.
type DeliverFunc func(ctx context.Context, e Entry) error

// DrainResult summarises one pass over the queue.
type DrainResult struct {
	Delivered int
	Failed    int
}

// Queue wraps the SQLite handle holding queued samples.
type Queue struct {
	db       *sql.DB
	capacity int
	now      func() time.Time
}

// Open creates (or reopens) the queue database at path.
func Open(ctx context.Context, path string, capacity int) (*Queue, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	q := &Queue{db: db, capacity: capacity, now: time.Now}
	if err := q.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS offline_samples (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			payload BLOB NOT NULL,
			enqueued_at TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Capacity reports the eviction bound.
func (q *Queue) Capacity() int { return q.capacity }

// Enqueue appends payload and evicts the oldest entries so the queue never
// holds more than its capacity. It returns the stored entry and how many
// entries were evicted.
func (q *Queue) Enqueue(ctx context.Context, payload []byte) (Entry, int, error) {
	e := Entry{
		ID:         uuid.NewString(),
		Payload:    payload,
		EnqueuedAt: q.now().UTC(),
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, 0, fmt.Errorf("begin enqueue: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO offline_samples (id, payload, enqueued_at, attempts) VALUES (?, ?, ?, 0)`,
		e.ID, e.Payload, e.EnqueuedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, 0, fmt.Errorf("insert entry: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return Entry{}, 0, fmt.Errorf("insert entry: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`DELETE FROM offline_samples WHERE seq NOT IN (
			SELECT seq FROM offline_samples ORDER BY seq DESC LIMIT ?
		)`, q.capacity)
	if err != nil {
		return Entry{}, 0, fmt.Errorf("evict oldest: %w", err)
	}
	evicted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return Entry{}, 0, fmt.Errorf("commit enqueue: %w", err)
	}
	return e, int(evicted), nil
}

// Entries returns every queued entry, oldest first.
func (q *Queue) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT seq, id, payload, enqueued_at, attempts FROM offline_samples ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			enqueuedAt string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Payload, &enqueuedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.EnqueuedAt, err = time.Parse(time.RFC3339Nano, enqueuedAt); err != nil {
			return nil, fmt.Errorf("parse enqueued_at %q: %w", enqueuedAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DrainInOrder hands every entry present at call time to deliver, oldest
// first. Delivered entries are removed; failed ones stay in place with their
// attempt counter bumped, so their relative order is unchanged. One failure
// never stops the pass. Cancelling ctx stops between entries.
func (q *Queue) DrainInOrder(ctx context.Context, deliver DeliverFunc) (DrainResult, error) {
	var result DrainResult

	entries, err := q.Entries(ctx)
	if err != nil {
		return result, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if derr := deliver(ctx, e); derr != nil {
			result.Failed++
			if _, err := q.db.ExecContext(ctx,
				`UPDATE offline_samples SET attempts = attempts + 1 WHERE seq = ?`, e.Seq); err != nil {
				return result, fmt.Errorf("record attempt: %w", err)
			}
			continue
		}

		result.Delivered++
		if _, err := q.db.ExecContext(ctx, `DELETE FROM offline_samples WHERE seq = ?`, e.Seq); err != nil {
			return result, fmt.Errorf("remove delivered entry: %w", err)
		}
	}
	return result, nil
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_samples`).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (q *Queue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}
