// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"saas-tenancy/internal/store"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Storage is a store.Engine backed by PostgreSQL.
type Storage struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewStorage(dsn string, logger *zap.Logger) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an already opened database handle.
func New(db *sql.DB, logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{DB: db, logger: logger}
}

// Open returns a store.OpenFunc that connects to a tenant's isolated
// database and brings its schema up to date.
func Open(ctx context.Context, logger *zap.Logger) store.OpenFunc {
	return func(dsn string) (store.Engine, error) {
		s, err := NewStorage(dsn, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, s.DB, logger); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) Select(ctx context.Context, collection string, columns []string, filter store.Filter) ([]store.Row, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pq.QuoteIdentifier(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), pq.QuoteIdentifier(collection))
	where, args := whereClause(filter, 1)
	query += where

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := make([]store.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		row := make(store.Row, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return out, nil
}

// Commit applies the changes in a single transaction.
func (s *Storage) Commit(ctx context.Context, changes []store.Change) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}

	affected, err := apply(ctx, tx, changes)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", mapError(err))
	}
	return affected, nil
}

func apply(ctx context.Context, tx *sql.Tx, changes []store.Change) (int, error) {
	affected := 0
	for i, ch := range changes {
		query, args, err := statement(ch)
		if err != nil {
			return 0, fmt.Errorf("change %d: %w", i, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("change %d: %s %s: %w", i, ch.Op, ch.Collection, mapError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("change %d: %w", i, err)
		}
		if n == 0 && ch.Op != store.OpInsert {
			return 0, fmt.Errorf("change %d: %s %s: %w", i, ch.Op, ch.Collection, store.ErrNotFound)
		}
		affected += int(n)
	}
	return affected, nil
}

func statement(ch store.Change) (string, []any, error) {
	table := pq.QuoteIdentifier(ch.Collection)
	columns := sortedColumns(ch.Row)

	switch ch.Op {
	case store.OpInsert:
		names := make([]string, len(columns))
		params := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			names[i] = pq.QuoteIdentifier(c)
			params[i] = fmt.Sprintf("$%d", i+1)
			args[i] = ch.Row[c]
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(names, ", "), strings.Join(params, ", "))
		return query, args, nil

	case store.OpUpdate:
		if ch.Guard.Empty() {
			return "", nil, fmt.Errorf("update %s without guard", ch.Collection)
		}
		if len(columns) == 0 {
			return "", nil, fmt.Errorf("update %s without columns", ch.Collection)
		}
		sets := make([]string, len(columns))
		args := make([]any, 0, len(columns))
		for i, c := range columns {
			sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), i+1)
			args = append(args, ch.Row[c])
		}
		where, guardArgs := whereClause(ch.Guard, len(columns)+1)
		query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), where)
		return query, append(args, guardArgs...), nil

	case store.OpDelete:
		if ch.Guard.Empty() {
			return "", nil, fmt.Errorf("delete %s without guard", ch.Collection)
		}
		where, args := whereClause(ch.Guard, 1)
		return fmt.Sprintf("DELETE FROM %s%s", table, where), args, nil
	}
	return "", nil, fmt.Errorf("unsupported op %v", ch.Op)
}

// whereClause renders filter with placeholders numbered from first.
func whereClause(filter store.Filter, first int) (string, []any) {
	conds := filter.Conds()
	if len(conds) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		col := pq.QuoteIdentifier(c.Column)
		if c.Value == nil {
			parts = append(parts, col+" IS NULL")
			continue
		}
		args = append(args, c.Value)
		parts = append(parts, fmt.Sprintf("%s = $%d", col, first+len(args)-1))
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func sortedColumns(row store.Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, pqErr.Constraint)
	}
	return err
}
