package audit

import (
	"context"
	"testing"

	"sapataria/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(_ context.Context, ev Event) {
	r.events = append(r.events, ev)
}

func TestActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorFrom(ctx))
	assert.Equal(t, "maria", ActorFrom(WithActor(ctx, "maria")))
}

func TestRecord(t *testing.T) {
	sink := &recordingSink{}
	ctx := WithActor(context.Background(), "webhook")

	Record(ctx, sink, "stock.remove", "stock_entries", "7:1", map[string]any{"delta": 2})
	Record(ctx, nil, "ignored", "x", 1, nil)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "webhook", ev.Actor)
	assert.Equal(t, "stock.remove", ev.Action)
	assert.Equal(t, "7:1", ev.EntityID)
	assert.False(t, ev.At.IsZero())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	Record(context.Background(), sink, "variant.delete", "product_variants", int64(9), nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "variant.delete", fields["action"])
	assert.Equal(t, "9", fields["entity_id"])
}

func TestDBSink(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, Models()...))

	sink := New(Config{Sink: "db"}, db, zap.NewNop())
	Record(WithActor(context.Background(), "ana"), sink, "stock.set", "stock_entries", "3:2", map[string]any{"quantity": 5})

	var rows []Log
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "ana", rows[0].Actor)
	assert.Equal(t, "3:2", rows[0].EntityPK)
	assert.JSONEq(t, `{"quantity":5}`, rows[0].Details)
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	assert.IsType(t, Nop{}, New(Config{Sink: "none"}, nil, logger))
	assert.IsType(t, &LogSink{}, New(Config{Sink: "log"}, nil, logger))
	assert.IsType(t, &LogSink{}, New(Config{Sink: "db"}, nil, logger))
}
