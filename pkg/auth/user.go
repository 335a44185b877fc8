package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fairgo/ai-ivr/pkg/mongo"
)

const userCollection = "users"

var ErrUserNotFound = errors.New("user not found")

// User is a dashboard/API account belonging to one tenant.
type User struct {
	ID           string `bson:"_id" json:"id"`
	TenantID     string `bson:"tenant_id" json:"tenant_id"`
	Email        string `bson:"email" json:"email"`
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Role         string `bson:"role" json:"role"`
	PasswordHash string `bson:"password_hash" json:"-"`
	Active       bool   `bson:"active" json:"active"`
	CreatedAt    string `bson:"created_at" json:"created_at"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleAuditor:
		return true
	}
	return false
}

// UserStore reads and writes users in MongoDB.
type UserStore struct {
	client *mongo.Client
}

func NewUserStore(client *mongo.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "email", NormalizeEmail(email))
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, "_id", id)
}

func (s *UserStore) findOne(ctx context.Context, field, value string) (*User, error) {
	var u User
	found, err := s.client.NewQuery(userCollection).Eq(field, value).FindOne(ctx, &u)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// Create inserts a new active user with a fresh ID.
func (s *UserStore) Create(ctx context.Context, tenantID, email, name, role, password string) (*User, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Email:        NormalizeEmail(email),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    mongo.Now(),
	}
	if _, err := s.client.NewQuery(userCollection).Insert(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
