package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aurum/internal/identityregistry/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	txcontext "aurum/pkg/platform/tx"
)

// PostgresStore persists wallet bindings.
//
// Schema:
//
//	CREATE TABLE wallet_bindings (
//	    wallet        TEXT PRIMARY KEY,
//	    identity_id   UUID NOT NULL,
//	    country_code  SMALLINT NOT NULL,
//	    registered_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX wallet_bindings_identity_idx ON wallet_bindings (identity_id);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, binding models.Binding) error {
	const q = `
		INSERT INTO wallet_bindings (wallet, identity_id, country_code, registered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet) DO UPDATE
		SET identity_id = EXCLUDED.identity_id, country_code = EXCLUDED.country_code`
	if _, err := s.runner(ctx).ExecContext(ctx, q,
		binding.Wallet.String(),
		binding.Identity.String(),
		int16(binding.Country),
		binding.RegisteredAt,
	); err != nil {
		return fmt.Errorf("save wallet binding: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, wallet domain.Address) (models.Binding, error) {
	const q = `
		SELECT wallet, identity_id, country_code, registered_at
		FROM wallet_bindings WHERE wallet = $1`
	var (
		rawWallet   string
		rawIdentity string
		country     int16
		binding     models.Binding
	)
	err := s.runner(ctx).QueryRowContext(ctx, q, wallet.String()).
		Scan(&rawWallet, &rawIdentity, &country, &binding.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Binding{}, sentinel.ErrNotFound
		}
		return models.Binding{}, fmt.Errorf("get wallet binding: %w", err)
	}
	if binding.Wallet, err = domain.ParseAddress(rawWallet); err != nil {
		return models.Binding{}, fmt.Errorf("stored wallet address: %w", err)
	}
	if binding.Identity, err = domain.ParseIdentityID(rawIdentity); err != nil {
		return models.Binding{}, fmt.Errorf("stored identity id: %w", err)
	}
	binding.Country = domain.CountryCode(country)
	return binding, nil
}

func (s *PostgresStore) Delete(ctx context.Context, wallet domain.Address) error {
	const q = `DELETE FROM wallet_bindings WHERE wallet = $1`
	res, err := s.runner(ctx).ExecContext(ctx, q, wallet.String())
	if err != nil {
		return fmt.Errorf("delete wallet binding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete wallet binding: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
