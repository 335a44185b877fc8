package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/fairgo/ai-ivr/pkg/mongo"
)

const historyCollection = "tts_requests"

// Record is one stored synthesis.
type Record struct {
	ID              string  `bson:"_id" json:"id"`
	TenantID        string  `bson:"tenant_id" json:"tenant_id"`
	UserID          string  `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Dialect         string  `bson:"dialect" json:"dialect"`
	Text            string  `bson:"text" json:"text"`
	TransformedText string  `bson:"transformed_text" json:"transformed_text"`
	VoiceID         string  `bson:"voice_id,omitempty" json:"voice_id,omitempty"`
	Format          string  `bson:"format,omitempty" json:"format,omitempty"`
	SpeakingRate    float64 `bson:"speaking_rate" json:"speaking_rate"`
	Pitch           float64 `bson:"pitch" json:"pitch"`
	Provider        string  `bson:"provider" json:"provider"`
	Cached          bool    `bson:"cached" json:"cached"`
	Bytes           int     `bson:"bytes" json:"bytes"`
	CreatedAt       string  `bson:"created_at" json:"created_at"`
}

// History stores synthesis records per tenant.
type History interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, tenantID string, dialect string, offset, limit int) ([]Record, int64, error)
}

// MongoHistory keeps records in the tts_requests collection.
type MongoHistory struct {
	client  *mongo.Client
	timeout time.Duration
}

// NewMongoHistory returns a History backed by client.
func NewMongoHistory(client *mongo.Client) *MongoHistory {
	return &MongoHistory{client: client, timeout: 5 * time.Second}
}

func (h *MongoHistory) Record(ctx context.Context, rec Record) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = mongo.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.client.NewQuery(historyCollection).Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert %s: %w", historyCollection, err)
	}
	return nil
}

// List returns the tenant's records newest first, optionally filtered by
// dialect, together with the total number of matches.
func (h *MongoHistory) List(ctx context.Context, tenantID, dialect string, offset, limit int) ([]Record, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	query := func() *mongo.QueryBuilder {
		q := h.client.NewQuery(historyCollection).Eq("tenant_id", tenantID)
		if dialect != "" {
			q.Eq("dialect", dialect)
		}
		return q
	}

	total, err := query().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", historyCollection, err)
	}

	records := []Record{}
	err = query().
		Sort("created_at", false).
		Skip(int64(offset)).
		Limit(int64(limit)).
		Find(ctx, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", historyCollection, err)
	}
	return records, total, nil
}
