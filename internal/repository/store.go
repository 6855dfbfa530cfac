package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories run inside or outside a transaction
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories bound to one transaction handle
type Store interface {
	Products() ProductRepository
	SKUs() SKURepository
	Collections() CollectionRepository
}

// Transactor runs fn inside a single database transaction. Any error returned by fn,
// or a panic, rolls back every write made through the Store; otherwise it commits.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type store struct {
	products    ProductRepository
	skus        SKURepository
	collections CollectionRepository
}

// NewStore binds all repositories to db
func NewStore(db DBTX) Store {
	return &store{
		products:    NewProductRepository(db),
		skus:        NewSKURepository(db),
		collections: NewCollectionRepository(db),
	}
}

func (s *store) Products() ProductRepository       { return s.products }
func (s *store) SKUs() SKURepository               { return s.skus }
func (s *store) Collections() CollectionRepository { return s.collections }

type sqlTransactor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransactor creates a Transactor over the connection pool
func NewTransactor(db *sql.DB, logger *zap.Logger) Transactor {
	return &sqlTransactor{db: db, logger: logger}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) (err error) {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				t.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(ctx, NewStore(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a unique constraint failure on constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

// isForeignKeyViolation reports whether err is a foreign key failure
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
