package repositories

import (
	"context"
	"database/sql"
	"time"

	"crewdesk/internal/apperrors"
)

// Querier is the subset of *sql.DB / *sql.Tx the repositories need, so the
// same repository code runs inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store aggregates the repositories over one connection or transaction and
// runs read-then-decide-then-write sequences atomically via InTx.
type Store interface {
	Tasks() TaskRepository
	Users() UserRepository
	Teams() TeamRepository
	Approvals() ApprovalRepository
	TimeLogs() TimeLogRepository
	Suggestions() SuggestionRepository

	// InTx runs fn against a store bound to a single transaction with the
	// given deadline. fn returning an error rolls back; exceeding the
	// deadline aborts and surfaces a Transient error.
	InTx(ctx context.Context, timeout time.Duration, fn func(Store) error) error
}

type sqlStore struct {
	db *sql.DB // nil when the store is already transaction-bound
	q  Querier
}

func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db, q: db}
}

func (s *sqlStore) Tasks() TaskRepository             { return &taskRepository{q: s.q} }
func (s *sqlStore) Users() UserRepository             { return &userRepository{q: s.q} }
func (s *sqlStore) Teams() TeamRepository             { return &teamRepository{q: s.q} }
func (s *sqlStore) Approvals() ApprovalRepository     { return &approvalRepository{q: s.q} }
func (s *sqlStore) TimeLogs() TimeLogRepository       { return &timeLogRepository{q: s.q} }
func (s *sqlStore) Suggestions() SuggestionRepository { return &suggestionRepository{q: s.q} }

func (s *sqlStore) InTx(ctx context.Context, timeout time.Duration, fn func(Store) error) error {
	if s.db == nil {
		// already inside a transaction; join it
		return fn(s)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, err, "begin transaction")
	}

	if err := fn(&sqlStore{q: tx}); err != nil {
		_ = tx.Rollback()
		if ctx.Err() != nil {
			return apperrors.Wrap(apperrors.KindTransient, err, "transaction deadline exceeded")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.KindTransient, err, "commit transaction")
	}
	return nil
}
