package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fairgo/ai-ivr/pkg/mongo"
)

const refreshTokenCollection = "refresh_tokens"

var ErrRefreshTokenInvalid = errors.New("refresh token is invalid, expired or revoked")

type refreshToken struct {
	TokenHash  string `bson:"token_hash"`
	UserID     string `bson:"user_id"`
	TenantID   string `bson:"tenant_id"`
	ExpiresAt  string `bson:"expires_at"`
	RevokedAt  string `bson:"revoked_at,omitempty"`
	LastUsedAt string `bson:"last_used_at,omitempty"`
	CreatedAt  string `bson:"created_at"`
}

// RefreshStore persists refresh token hashes in MongoDB.
type RefreshStore struct {
	client *mongo.Client
	ttl    time.Duration
}

func NewRefreshStore(client *mongo.Client, ttl time.Duration) *RefreshStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RefreshStore{client: client, ttl: ttl}
}

// Store saves the hash of token for the user.
func (s *RefreshStore) Store(ctx context.Context, userID, tenantID, token string) error {
	now := time.Now().UTC()
	_, err := s.client.NewQuery(refreshTokenCollection).Insert(ctx, refreshToken{
		TokenHash: hashToken(token),
		UserID:    userID,
		TenantID:  tenantID,
		ExpiresAt: now.Add(s.ttl).Format(time.RFC3339),
		CreatedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Consume revokes token and returns the owning user ID. The revocation is
// a single conditional update, so of several concurrent calls with the same
// token at most one succeeds; the others get ErrRefreshTokenInvalid.
func (s *RefreshStore) Consume(ctx context.Context, token string) (string, error) {
	now := mongo.Now()

	var doc refreshToken
	found, err := s.client.NewQuery(refreshTokenCollection).
		Eq("token_hash", hashToken(token)).
		Missing("revoked_at").
		FindOneAndUpdate(ctx, map[string]interface{}{"revoked_at": now, "last_used_at": now}, &doc)
	if err != nil {
		return "", fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !found || !doc.usable(time.Now()) {
		return "", ErrRefreshTokenInvalid
	}
	return doc.UserID, nil
}

// Revoke marks token as revoked. Unknown tokens are not an error.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	_, err := s.client.NewQuery(refreshTokenCollection).
		Eq("token_hash", hashToken(token)).
		UpdateOne(ctx, map[string]interface{}{"revoked_at": mongo.Now()})
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (t refreshToken) usable(now time.Time) bool {
	if t.RevokedAt != "" {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339, t.ExpiresAt)
	return err == nil && now.Before(expiresAt)
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
