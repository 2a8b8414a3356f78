package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

const (
	collectionSessionEvents = "session_events"

	writeTimeout = 5 * time.Second
	indexTimeout = 30 * time.Second
)

type sessionEventDoc struct {
	VisitorID  string    `bson:"visitor_id"`
	Type       string    `bson:"type"`
	UserID     int64     `bson:"user_id,omitempty"`
	Email      string    `bson:"email,omitempty"`
	Role       string    `bson:"role,omitempty"`
	Reason     string    `bson:"reason,omitempty"`
	At         time.Time `bson:"at"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// SessionEventRepository implements ports.SessionEventRepository using MongoDB.
type SessionEventRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewSessionEventRepository creates a repository over the session_events
// collection. A positive retention makes EnsureIndexes add a TTL index.
func NewSessionEventRepository(db *mongo.Database, retention time.Duration) *SessionEventRepository {
	return &SessionEventRepository{col: db.Collection(collectionSessionEvents), retention: retention}
}

var _ ports.SessionEventRepository = (*SessionEventRepository)(nil)

// InsertEvent appends one event to the audit trail.
func (r *SessionEventRepository) InsertEvent(ctx context.Context, ev *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toSessionEventDoc(ev, time.Now().UTC()))
	return err
}

// EnsureIndexes creates the lookup indexes and, when retention is set, the
// TTL index on recorded_at.
func (r *SessionEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "visitor_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
	}
	if r.retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention / time.Second)),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toSessionEventDoc(ev *domain.SessionEvent, recordedAt time.Time) sessionEventDoc {
	return sessionEventDoc{
		VisitorID:  ev.VisitorID,
		Type:       string(ev.Type),
		UserID:     ev.UserID,
		Email:      ev.Email,
		Role:       ev.Role,
		Reason:     ev.Reason,
		At:         ev.At.UTC(),
		RecordedAt: recordedAt,
	}
}
