// Job store. A durable PostgreSQL implementation using the same
// optimistic-concurrency status_version CAS pattern as
// internal/modules/order/store.go, applied to the Job lifecycle, plus a
// process-local in-memory fallback for dev/test mode (no DB DSN configured).
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"platefinder/internal/search"
	"platefinder/internal/types"
)

var (
	ErrNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Store is the C7 job-store contract: create/setStatus/setResult/setError/get.
type Store interface {
	Create(ctx context.Context, id types.ID) error
	SetRunning(ctx context.Context, id types.ID) error
	SetResult(ctx context.Context, id types.ID, resp search.SearchResponse) error
	SetError(ctx context.Context, id types.ID, errMsg string) error
	Get(ctx context.Context, id types.ID) (*Job, error)
}

// PostgresStore is the durable, cross-process implementation.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, id types.ID) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO jobs (id, status, status_version, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)`,
		string(id), string(StatusPending), now,
	)
	return err
}

func (s *PostgresStore) SetRunning(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusPending, StatusRunning, nil, nil)
}

func (s *PostgresStore) SetResult(ctx context.Context, id types.ID, resp search.SearchResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.transition(ctx, id, StatusRunning, StatusDoneSuccess, payload, nil)
}

func (s *PostgresStore) SetError(ctx context.Context, id types.ID, errMsg string) error {
	return s.transition(ctx, id, StatusRunning, StatusDoneFailed, nil, &errMsg)
}

// transition performs the compare-and-set update using a
// `WHERE id = $id AND status = $from` clause and bumps status_version. It is
// not retried: when no row matches (the job is missing or not in `from`), it
// returns ErrInvalidTransition.
func (s *PostgresStore) transition(ctx context.Context, id types.ID, from, to Status, result []byte, errMsg *string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs
		SET status = $1,
		    status_version = status_version + 1,
		    result = COALESCE($2, result),
		    error = COALESCE($3, error),
		    updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		string(to), result, errMsg, string(id), string(from),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Job, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, status, status_version, result, error, created_at, updated_at
		FROM jobs WHERE id = $1`, string(id))

	var j Job
	var result []byte
	var errMsg sql.NullString
	if err := row.Scan(&j.ID, &j.Status, &j.StatusVersion, &result, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(result) > 0 {
		var resp search.SearchResponse
		if err := json.Unmarshal(result, &resp); err == nil {
			j.Result = &resp
		}
	}
	if errMsg.Valid {
		j.Error = errMsg.String
	}
	return &j, nil
}

// MemoryStore is the process-local fallback used when no durable store is
// configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[types.ID]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[types.ID]*Job)}
}

func (s *MemoryStore) Create(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.jobs[id] = &Job{ID: id, Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (s *MemoryStore) SetRunning(ctx context.Context, id types.ID) error {
	return s.transition(id, StatusPending, StatusRunning, nil, "")
}

func (s *MemoryStore) SetResult(ctx context.Context, id types.ID, resp search.SearchResponse) error {
	r := resp
	return s.transition(id, StatusRunning, StatusDoneSuccess, &r, "")
}

func (s *MemoryStore) SetError(ctx context.Context, id types.ID, errMsg string) error {
	return s.transition(id, StatusRunning, StatusDoneFailed, nil, errMsg)
}

func (s *MemoryStore) transition(id types.ID, from, to Status, result *search.SearchResponse, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status != from || !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	j.Status = to
	j.StatusVersion++
	j.UpdatedAt = time.Now()
	if result != nil {
		j.Result = result
	}
	if errMsg != "" {
		j.Error = errMsg
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// RunTTLSweeper expires jobs past DefaultTTL, using the same ticker-based
// RunScheduleExpireTicker idiom as order.Service.
func (s *MemoryStore) RunTTLSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ttl)
		}
	}
}

func (s *MemoryStore) sweepExpired(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-ttl)
	for id, j := range s.jobs {
		if j.CreatedAt.Before(cutoff) && (j.Status == StatusDoneSuccess || j.Status == StatusDoneFailed || j.Status == StatusPending) {
			delete(s.jobs, id)
		}
	}
}
