package repositories

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrConflict — запись с таким ключом уже существует.
	ErrConflict = errors.New("record already exists")
)

// querier реализуется как *sql.DB, так и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
