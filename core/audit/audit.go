package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event describes one mutation performed by an inventory operation.
type Event struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Details  map[string]any
	At       time.Time
}

// Sink receives audit events. Implementations must not fail the calling operation.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

type actorKey struct{}

// WithActor attaches the acting user to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or "system".
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// Record fills the actor and timestamp of ev and hands it to sink.
// A nil sink discards the event.
func Record(ctx context.Context, sink Sink, action, entity string, entityID any, details map[string]any) {
	if sink == nil {
		return
	}
	sink.Emit(ctx, Event{
		Actor:    ActorFrom(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprint(entityID),
		Details:  details,
		At:       time.Now().UTC(),
	})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev Event) {
	s.logger.Info("audit",
		zap.String("actor", ev.Actor),
		zap.String("action", ev.Action),
		zap.String("entity", ev.Entity),
		zap.String("entity_id", ev.EntityID),
		zap.Any("details", ev.Details),
	)
}

// Log is the persisted form of an event.
type Log struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:120;not null" json:"actor"`
	Action    string    `gorm:"size:60;not null;index" json:"action"`
	Entity    string    `gorm:"size:60;not null" json:"entity"`
	EntityPK  string    `gorm:"column:entity_pk;size:120" json:"entity_pk"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func (Log) TableName() string {
	return "audit_logs"
}

// DBSink persists events to the audit_logs table.
type DBSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDBSink creates a sink writing through db. Write failures are logged and dropped.
func NewDBSink(db *gorm.DB, logger *zap.Logger) *DBSink {
	return &DBSink{db: db, logger: logger}
}

func (s *DBSink) Emit(ctx context.Context, ev Event) {
	details, err := json.Marshal(ev.Details)
	if err != nil {
		details = []byte("{}")
	}
	row := Log{
		Actor:     ev.Actor,
		Action:    ev.Action,
		Entity:    ev.Entity,
		EntityPK:  ev.EntityID,
		Details:   string(details),
		CreatedAt: ev.At,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logger.Warn("Failed to persist audit event",
			zap.String("action", ev.Action),
			zap.String("entity_pk", ev.EntityID),
			zap.Error(err))
	}
}

// New builds the sink selected by cfg. The db sink falls back to logging when db is nil.
func New(cfg Config, db *gorm.DB, logger *zap.Logger) Sink {
	switch cfg.Sink {
	case "none":
		return Nop{}
	case "db":
		if db != nil {
			return NewDBSink(db, logger)
		}
		logger.Warn("Audit sink 'db' requested without a database, logging instead")
	}
	return NewLogSink(logger)
}

// Models returns the tables owned by this package.
func Models() []any {
	return []any{&Log{}}
}
