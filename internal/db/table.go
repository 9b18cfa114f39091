package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table holds the by-id reads and deletes every aggregate repository needs.
// Aggregate-specific queries stay in the repositories themselves.
type Table[T any] struct {
	db       *sqlx.DB
	name     string
	columns  string
	notFound error
}

func NewTable[T any](db *sqlx.DB, name, columns string, notFound error) Table[T] {
	return Table[T]{db: db, name: name, columns: columns, notFound: notFound}
}

func (t Table[T]) Name() string    { return t.name }
func (t Table[T]) Columns() string { return t.columns }

func (t Table[T]) Get(ctx context.Context, id int) (*T, error) {
	return t.get(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.columns, t.name), id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (t Table[T]) GetForUpdate(ctx context.Context, id int) (*T, error) {
	return t.get(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, t.columns, t.name), id)
}

func (t Table[T]) get(ctx context.Context, query string, id int) (*T, error) {
	var row T
	if err := Conn(ctx, t.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, t.notFound
		}
		return nil, err
	}
	return &row, nil
}

// Select returns the rows matching where (may be empty) in the given order.
func (t Table[T]) Select(ctx context.Context, where, orderBy string, args ...interface{}) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s`, t.columns, t.name)
	if where != "" {
		query += " WHERE " + where
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	rows := []T{}
	if err := Conn(ctx, t.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t Table[T]) Delete(ctx context.Context, id int) error {
	result, err := Conn(ctx, t.db).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return err
	}
	return t.expectOne(result)
}

// ExecOne runs a statement that must touch exactly one row.
func (t Table[T]) ExecOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := Conn(ctx, t.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return t.expectOne(result)
}

func (t Table[T]) expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}
