package exports

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("export API key not found")

const apiKeyPrefix = "rqex_"

// APIKey represents an export API key stored in the database.
type APIKey struct {
	ID         uuid.UUID
	Name       string
	KeyHash    string
	KeyPrefix  string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
}

// Repository provides data access for export API keys.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key and its hash.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = apiKeyPrefix + hex.EncodeToString(bytes)
	h := sha256.Sum256([]byte(plaintext))
	hash = hex.EncodeToString(h[:])
	prefix = plaintext[:12]
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// CreateAPIKey creates a new export API key record.
func (r *Repository) CreateAPIKey(ctx context.Context, name string, keyHash string, keyPrefix string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rq_export_api_keys (name, key_hash, key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, key_hash, key_prefix, is_active, created_at, updated_at, last_used_at
	`, name, keyHash, keyPrefix).Scan(
		&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
	)
	return key, err
}

// GetAPIKeyByHash retrieves an active API key by its hash.
func (r *Repository) GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, key_hash, key_prefix, is_active, created_at, updated_at, last_used_at
		FROM rq_export_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash).Scan(
		&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

// ListAPIKeys returns all export API keys.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, key_hash, key_prefix, is_active, created_at, updated_at, last_used_at
		FROM rq_export_api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(
			&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// RevokeAPIKey deactivates an export API key.
func (r *Repository) RevokeAPIKey(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rq_export_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1
	`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// TouchAPIKey updates the last_used_at timestamp for the key.
func (r *Repository) TouchAPIKey(ctx context.Context, keyID uuid.UUID) {
	_, _ = r.pool.Exec(ctx, `
		UPDATE rq_export_api_keys SET last_used_at = now(), updated_at = now()
		WHERE id = $1
	`, keyID)
}
