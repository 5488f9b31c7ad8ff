package store

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aurum/internal/identity/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	txcontext "aurum/pkg/platform/tx"
)

// PostgresStore persists identity aggregates. Keys and claims travel as JSONB
// so a Save commits the whole aggregate in one statement.
//
// Schema:
//
//	CREATE TABLE identities (
//	    id          UUID PRIMARY KEY,
//	    owner       TEXT NOT NULL UNIQUE,
//	    owner_key   BYTEA NOT NULL,
//	    keys        JSONB NOT NULL,
//	    claims      JSONB NOT NULL,
//	    deployed_at TIMESTAMPTZ NOT NULL
//	);
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

type keyRecord struct {
	ID       string   `json:"id"`
	Address  string   `json:"address"`
	Purposes []uint64 `json:"purposes"`
	Type     uint8    `json:"type"`
}

type claimRecord struct {
	ID        string    `json:"id"`
	Topic     uint64    `json:"topic"`
	Scheme    uint      `json:"scheme"`
	Issuer    string    `json:"issuer"`
	Signature []byte    `json:"signature"`
	SignerKey []byte    `json:"signer_key"`
	Data      []byte    `json:"data,omitempty"`
	URI       string    `json:"uri,omitempty"`
	Revocable bool      `json:"revocable"`
	Revoked   bool      `json:"revoked"`
	AddedAt   time.Time `json:"added_at"`
}

func (s *PostgresStore) Save(ctx context.Context, identity *models.Identity) error {
	keys := make([]keyRecord, 0, len(identity.Keys))
	for _, k := range identity.Keys {
		purposes := make([]uint64, 0, len(k.Purposes))
		for _, p := range k.Purposes {
			purposes = append(purposes, uint64(p))
		}
		keys = append(keys, keyRecord{
			ID:       k.ID,
			Address:  k.Address.String(),
			Purposes: purposes,
			Type:     uint8(k.Type),
		})
	}
	claims := make([]claimRecord, 0, len(identity.Claims))
	for _, c := range identity.Claims {
		claims = append(claims, claimRecord{
			ID:        c.ID,
			Topic:     uint64(c.Topic),
			Scheme:    c.Scheme,
			Issuer:    c.Issuer.String(),
			Signature: c.Signature,
			SignerKey: c.SignerKey,
			Data:      c.Data,
			URI:       c.URI,
			Revocable: c.Revocable,
			Revoked:   c.Revoked,
			AddedAt:   c.AddedAt,
		})
	}

	rawKeys, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal identity keys: %w", err)
	}
	rawClaims, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("marshal identity claims: %w", err)
	}

	const q = `
		INSERT INTO identities (id, owner, owner_key, keys, claims, deployed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET owner = EXCLUDED.owner, owner_key = EXCLUDED.owner_key,
		    keys = EXCLUDED.keys, claims = EXCLUDED.claims`
	if _, err := s.runner(ctx).ExecContext(ctx, q,
		identity.ID.String(),
		identity.Owner.String(),
		[]byte(identity.OwnerKey),
		rawKeys,
		rawClaims,
		identity.DeployedAt,
	); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.IdentityID) (*models.Identity, error) {
	const q = `
		SELECT id, owner, owner_key, keys, claims, deployed_at
		FROM identities WHERE id = $1`
	return s.scanIdentity(s.runner(ctx).QueryRowContext(ctx, q, id.String()))
}

func (s *PostgresStore) GetByOwner(ctx context.Context, owner domain.Address) (*models.Identity, error) {
	const q = `
		SELECT id, owner, owner_key, keys, claims, deployed_at
		FROM identities WHERE owner = $1`
	return s.scanIdentity(s.runner(ctx).QueryRowContext(ctx, q, owner.String()))
}

func (s *PostgresStore) scanIdentity(row *sql.Row) (*models.Identity, error) {
	var (
		rawID     string
		rawOwner  string
		ownerKey  []byte
		rawKeys   []byte
		rawClaims []byte
		identity  models.Identity
	)
	err := row.Scan(&rawID, &rawOwner, &ownerKey, &rawKeys, &rawClaims, &identity.DeployedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if identity.ID, err = domain.ParseIdentityID(rawID); err != nil {
		return nil, fmt.Errorf("stored identity id: %w", err)
	}
	if identity.Owner, err = domain.ParseAddress(rawOwner); err != nil {
		return nil, fmt.Errorf("stored identity owner: %w", err)
	}
	identity.OwnerKey = ed25519.PublicKey(ownerKey)

	var keys []keyRecord
	if err := json.Unmarshal(rawKeys, &keys); err != nil {
		return nil, fmt.Errorf("stored identity keys: %w", err)
	}
	identity.Keys = make([]models.Key, 0, len(keys))
	for _, k := range keys {
		addr, err := domain.ParseAddress(k.Address)
		if err != nil {
			return nil, fmt.Errorf("stored key address: %w", err)
		}
		purposes := make([]domain.Purpose, 0, len(k.Purposes))
		for _, p := range k.Purposes {
			purposes = append(purposes, domain.Purpose(p))
		}
		identity.Keys = append(identity.Keys, models.Key{
			ID:       k.ID,
			Address:  addr,
			Purposes: purposes,
			Type:     domain.KeyType(k.Type),
		})
	}

	var claims []claimRecord
	if err := json.Unmarshal(rawClaims, &claims); err != nil {
		return nil, fmt.Errorf("stored identity claims: %w", err)
	}
	identity.Claims = make([]models.Claim, 0, len(claims))
	for _, c := range claims {
		issuer, err := domain.ParseAddress(c.Issuer)
		if err != nil {
			return nil, fmt.Errorf("stored claim issuer: %w", err)
		}
		identity.Claims = append(identity.Claims, models.Claim{
			ID:        c.ID,
			Topic:     domain.Topic(c.Topic),
			Scheme:    c.Scheme,
			Issuer:    issuer,
			Signature: c.Signature,
			SignerKey: ed25519.PublicKey(c.SignerKey),
			Data:      c.Data,
			URI:       c.URI,
			Revocable: c.Revocable,
			Revoked:   c.Revoked,
			AddedAt:   c.AddedAt,
		})
	}
	return &identity, nil
}
