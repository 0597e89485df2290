package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/paulexconde/formdeck/internal/pkg/fault"
)

type dataStore[T any] struct {
	db        *sqlx.DB
	tablename string
	hooks     Hooks
	mu        sync.RWMutex
}

func NewDataStore[T any](db *sqlx.DB, tablename string) *dataStore[T] {
	return &dataStore[T]{
		db:        db,
		tablename: tablename,
	}
}

func (s *dataStore[T]) Base() *sqlx.DB {
	return s.db
}

func (s *dataStore[T]) SetHooks(hooks Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks.PreSave = append(s.hooks.PreSave, hooks.PreSave...)
	s.hooks.PostSave = append(s.hooks.PostSave, hooks.PostSave...)
	s.hooks.PreDelete = append(s.hooks.PreDelete, hooks.PreDelete...)
	s.hooks.PostDelete = append(s.hooks.PostDelete, hooks.PostDelete...)
	s.hooks.AfterCommit = append(s.hooks.AfterCommit, hooks.AfterCommit...)
}

func (s *dataStore[T]) Get(ctx context.Context, query string, args ...any) (*T, error) {
	var result T

	if err := s.db.GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *dataStore[T]) Select(ctx context.Context, query string, args ...any) ([]T, error) {
	var results []T

	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		return nil, err
	}

	return results, nil
}

func (s *dataStore[T]) Count(ctx context.Context, query string, args ...any) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *dataStore[T]) Insert(ctx context.Context, id string, model any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, hook := range s.hooks.PreSave {
		if err = hook(ctx, tx, model, true); err != nil {
			return err
		}
	}

	columns, placeholders := insertClause(model)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.tablename, columns, placeholders)

	if _, err = tx.NamedExecContext(ctx, query, model); err != nil {
		err = translatePQError(err)
		return err
	}

	for _, hook := range s.hooks.PostSave {
		if err = hook(ctx, tx, model, true); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	for _, hook := range s.hooks.AfterCommit {
		hook(ctx, ActionCreate, id, model)
	}

	return nil
}

func (s *dataStore[T]) Update(ctx context.Context, id string, model any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, hook := range s.hooks.PreSave {
		if err = hook(ctx, tx, model, false); err != nil {
			return err
		}
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", s.tablename, updateClause(model))

	var result sql.Result
	if result, err = tx.NamedExecContext(ctx, query, model); err != nil {
		err = translatePQError(err)
		return err
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		err = fault.ErrNotFound
		return err
	}

	for _, hook := range s.hooks.PostSave {
		if err = hook(ctx, tx, model, false); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	for _, hook := range s.hooks.AfterCommit {
		hook(ctx, ActionUpdate, id, model)
	}

	return nil
}

func (s *dataStore[T]) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, hook := range s.hooks.PreDelete {
		if err = hook(ctx, tx, id); err != nil {
			return err
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tablename)

	var result sql.Result
	if result, err = tx.ExecContext(ctx, query, id); err != nil {
		err = translatePQError(err)
		return err
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		err = fault.ErrNotFound
		return err
	}

	for _, hook := range s.hooks.PostDelete {
		if err = hook(ctx, tx, id); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	for _, hook := range s.hooks.AfterCommit {
		hook(ctx, ActionDelete, id, nil)
	}

	return nil
}

// translatePQError maps the constraint-violation codes we care about onto
// the fault sentinels.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fault.ErrUniqueViolation
		case "23503":
			return fault.ErrForeignKeyViolation
		}
	}
	return err
}
