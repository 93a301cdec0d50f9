package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

var errNoPartition = errors.New("partition key is required")

// SequenceRepository hands out per-partition event sequence numbers
// starting at 1.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// bumpSequence is a single upsert, so concurrent publishers for the same
// session never read the same counter.
const bumpSequence = `
INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (partition_key) DO UPDATE
SET last_sequence = event_sequences.last_sequence + 1,
    updated_at = NOW()
RETURNING last_sequence`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresSequences keeps the counters in the event_sequences table.
type PostgresSequences struct {
	next func(ctx context.Context, partitionKey string) (int64, error)
}

func NewPostgresSequences(db rowQuerier) *PostgresSequences {
	return &PostgresSequences{
		next: func(ctx context.Context, partitionKey string) (int64, error) {
			var seq int64
			err := db.QueryRowContext(ctx, bumpSequence, partitionKey).Scan(&seq)
			return seq, err
		},
	}
}

func (p *PostgresSequences) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errNoPartition
	}
	seq, err := p.next(ctx, partitionKey)
	if err != nil {
		return 0, fmt.Errorf("bump sequence for %s: %w", partitionKey, err)
	}
	return seq, nil
}

// MemorySequences is a process-local SequenceRepository for runs without a
// database.
type MemorySequences struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequences() *MemorySequences {
	return &MemorySequences{last: make(map[string]int64)}
}

func (m *MemorySequences) NextSequence(_ context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errNoPartition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[partitionKey]++
	return m.last[partitionKey], nil
}
