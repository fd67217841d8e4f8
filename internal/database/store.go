package database

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// Store runs units of work against one database. Repositories take a bun.IDB
// so the same code serves both a pooled connection and an open transaction.
type Store struct {
	DB *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{DB: db}
}

// RunInTx commits when fn returns nil and rolls back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	return s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
