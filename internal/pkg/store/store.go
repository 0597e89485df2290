package store

import (
	"context"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Action identifies the kind of committed write an after-commit hook
// observed.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Hooks for database operations. Pre/Post hooks run inside the write
// transaction; AfterCommit runs once the write has landed and must not
// touch the transaction.
type Hooks struct {
	PreSave     []func(ctx context.Context, tx *sqlx.Tx, model any, isNew bool) error
	PostSave    []func(ctx context.Context, tx *sqlx.Tx, model any, isNew bool) error
	PreDelete   []func(ctx context.Context, tx *sqlx.Tx, id string) error
	PostDelete  []func(ctx context.Context, tx *sqlx.Tx, id string) error
	AfterCommit []func(ctx context.Context, action Action, id string, model any)
}

type Datastorer[T any] interface {
	Insert(ctx context.Context, id string, model any) error
	Update(ctx context.Context, id string, model any) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, query string, args ...any) (*T, error)
	Select(ctx context.Context, query string, args ...any) ([]T, error)
	Count(ctx context.Context, query string, args ...any) (int, error)
	// Set hooks.
	SetHooks(hooks Hooks)

	// useful for complex operations wherein the store interface does not
	// cover them (multi-row transactions, row locks).
	Base() *sqlx.DB
}

// structColumns extracts the db-tagged column names from a model struct.
func structColumns(model any) []string {
	typ := reflect.TypeOf(model)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	var columns []string
	for i := 0; i < typ.NumField(); i++ {
		dbTag := typ.Field(i).Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}
		columns = append(columns, dbTag)
	}
	return columns
}

// insertClause builds the column list and named placeholders for an
// INSERT from the model's db tags.
func insertClause(model any) (columns string, placeholders string) {
	names := structColumns(model)
	placeholderNames := make([]string, 0, len(names))
	for _, name := range names {
		placeholderNames = append(placeholderNames, ":"+name)
	}
	return strings.Join(names, ", "), strings.Join(placeholderNames, ", ")
}

// updateClause builds the SET clause for a full-row UPDATE, excluding the
// primary key.
func updateClause(model any) string {
	var assignments []string
	for _, name := range structColumns(model) {
		if name == "id" {
			continue
		}
		assignments = append(assignments, name+" = :"+name)
	}
	return strings.Join(assignments, ", ")
}
