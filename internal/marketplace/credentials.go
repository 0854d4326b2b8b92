package marketplace

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/nacl/secretbox"
)

// CredentialStore keeps one API key per owner, encrypted at rest with a
// secretbox key derived from the configured secret.
type CredentialStore struct {
	pool *pgxpool.Pool
	key  [32]byte
}

// NewCredentialStore constructs the store. secret must be non-empty.
func NewCredentialStore(pool *pgxpool.Pool, secret string) (*CredentialStore, error) {
	if secret == "" {
		return nil, errors.New("credential secret required")
	}
	return &CredentialStore{pool: pool, key: sha256.Sum256([]byte(secret))}, nil
}

func (s *CredentialStore) seal(plain string) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

func (s *CredentialStore) open(sealed []byte) (string, error) {
	if len(sealed) < 24 {
		return "", errors.New("sealed credential too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return "", errors.New("credential decryption failed")
	}
	return string(plain), nil
}

// Save stores or replaces the owner's API key.
func (s *CredentialStore) Save(ctx context.Context, ownerID int64, apiKey string) error {
	sealed, err := s.seal(apiKey)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO marketplace_credentials (owner_id, api_key_enc, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (owner_id) DO UPDATE SET api_key_enc=EXCLUDED.api_key_enc, updated_at=EXCLUDED.updated_at`,
		ownerID, sealed, time.Now())
	return err
}

// Get returns the owner's decrypted credential, or ErrNoCredential.
func (s *CredentialStore) Get(ctx context.Context, ownerID int64) (Credential, error) {
	var sealed []byte
	var updatedAt time.Time
	err := s.pool.QueryRow(ctx, `SELECT api_key_enc, updated_at FROM marketplace_credentials WHERE owner_id=$1`, ownerID).
		Scan(&sealed, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, err
	}
	apiKey, err := s.open(sealed)
	if err != nil {
		return Credential{}, err
	}
	return Credential{OwnerID: ownerID, APIKey: apiKey, UpdatedAt: updatedAt}, nil
}

// Owners lists the owner ids with a stored credential, used by the refresh
// job.
func (s *CredentialStore) Owners(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT owner_id FROM marketplace_credentials ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
