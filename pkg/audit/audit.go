package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/mongo"
)

const collection = "audit_log"

// Action represents an audit action
type Action string

const (
	ActionLogin        Action = "login"
	ActionLogout       Action = "logout"
	ActionTokenRefresh Action = "token_refresh"
	ActionSynthesize   Action = "synthesize"
	ActionCreateUser   Action = "create_user"
)

// Entry is one audit record.
type Entry struct {
	TenantID     string                 `bson:"tenant_id" json:"tenant_id"`
	UserID       string                 `bson:"user_id" json:"user_id"`
	Action       Action                 `bson:"action" json:"action"`
	ResourceType string                 `bson:"resource_type" json:"resource_type"`
	ResourceID   string                 `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Metadata     map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    string                 `bson:"created_at" json:"created_at"`
}

// Logger writes audit entries to MongoDB. A nil *Logger or one without a
// client drops entries with a warning.
type Logger struct {
	client *mongo.Client
	log    *zap.Logger
}

func New(client *mongo.Client) *Logger {
	return &Logger{client: client, log: logger.Named("audit")}
}

// Log stores e. Failures are logged and returned; callers on request paths
// usually ignore the error.
func (l *Logger) Log(ctx context.Context, e Entry) error {
	if l == nil || l.client == nil {
		logger.Named("audit").Warn("Audit logging skipped: MongoDB client not available",
			zap.String("action", string(e.Action)))
		return nil
	}
	if e.CreatedAt == "" {
		e.CreatedAt = mongo.Now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := l.client.NewQuery(collection).Insert(ctx, e); err != nil {
		l.log.Error("Failed to log audit event",
			zap.Error(err),
			zap.String("action", string(e.Action)),
			zap.String("resource_type", e.ResourceType),
		)
		return err
	}
	return nil
}

// List returns the tenant's entries newest first, optionally filtered by
// action, with the total match count.
func (l *Logger) List(ctx context.Context, tenantID string, action Action, offset, limit int) ([]Entry, int64, error) {
	if l == nil || l.client == nil {
		return nil, 0, fmt.Errorf("audit log not available")
	}
	query := func() *mongo.QueryBuilder {
		q := l.client.NewQuery(collection).Eq("tenant_id", tenantID)
		if action != "" {
			q.Eq("action", action)
		}
		return q
	}

	total, err := query().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	entries := []Entry{}
	if err := query().Sort("created_at", false).Skip(int64(offset)).Limit(int64(limit)).Find(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}
