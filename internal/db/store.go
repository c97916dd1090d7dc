package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the relational persistence layer for the pipeline.
// Every stage-level write method runs inside a single transaction so
// concurrent readers never observe a torn stage.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
