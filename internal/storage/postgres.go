package storage

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/Surajan01/daily-news-analysis/internal/logger"
)

// PostgresStore keeps the seen set in a processed_articles table. The table
// is mirrored into memory at Load time so Contains stays cheap during a run;
// Flush upserts the hashes added since.
type PostgresStore struct {
	db      *sql.DB
	mu      sync.RWMutex
	hashes  map[string]struct{}
	pending []string
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	store := &PostgresStore{
		db:     db,
		hashes: make(map[string]struct{}),
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	logger.Info("postgres state store connected")
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_articles (
		id SERIAL PRIMARY KEY,
		hash VARCHAR(64) UNIQUE NOT NULL,
		first_seen TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_processed_articles_hash ON processed_articles(hash);
	`

	_, err := ps.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}
	return nil
}

// Load mirrors all stored hashes into memory. A query failure fails soft:
// the run proceeds with an empty set and at worst re-notifies.
func (ps *PostgresStore) Load() error {
	rows, err := ps.db.Query(`SELECT hash FROM processed_articles`)
	if err != nil {
		logger.Warn("cannot load processed hashes, starting empty", "error", err)
		return nil
	}
	defer rows.Close()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			continue
		}
		ps.hashes[h] = struct{}{}
	}
	return nil
}

func (ps *PostgresStore) Contains(fingerprint string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	_, ok := ps.hashes[fingerprint]
	return ok
}

func (ps *PostgresStore) Add(fingerprint string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.hashes[fingerprint]; ok {
		return
	}
	ps.hashes[fingerprint] = struct{}{}
	ps.pending = append(ps.pending, fingerprint)
}

// Flush writes hashes added since the last flush. ON CONFLICT keeps the
// operation idempotent when a previous flush partially succeeded.
func (ps *PostgresStore) Flush() error {
	ps.mu.Lock()
	pending := ps.pending
	ps.pending = nil
	ps.mu.Unlock()

	for i, h := range pending {
		_, err := ps.db.Exec(`
			INSERT INTO processed_articles (hash, first_seen)
			VALUES ($1, NOW())
			ON CONFLICT (hash) DO NOTHING
		`, h)
		if err != nil {
			// Put the rest back so a retried flush picks them up.
			ps.mu.Lock()
			ps.pending = append(pending[i:], ps.pending...)
			ps.mu.Unlock()
			return fmt.Errorf("%w: insert hash: %v", ErrPersist, err)
		}
	}
	return nil
}

func (ps *PostgresStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.hashes)
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
