package eventbus_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/arcsuite/arcflow/pkg/channels/gochannel"
	"github.com/arcsuite/arcflow/pkg/eventbus"
	"github.com/arcsuite/arcflow/pkg/events"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T, logger *slog.Logger) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub)

	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newBus(t, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.WorkflowStatusChanged, 1)

	require.NoError(t, bus.Handle(events.WorkflowStatusChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowStatusChanged)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowCreatedEvent, "wf-1", time.Now()),
		Name:      "ignored without a handler",
	}))

	sent := events.WorkflowStatusChanged{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowStatusChangedEvent, "wf-1", time.Now()),
		From:      models.WorkflowStatusDraft,
		To:        models.WorkflowStatusActive,
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, models.WorkflowStatusActive, got.To)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_Handle_UnknownType(t *testing.T) {
	bus := newBus(t, slog.New(slog.DiscardHandler))

	err := bus.Handle("workflow.exploded", func(context.Context, any) error { return nil })
	assert.Error(t, err)
}

func TestWatermillEventBus_HandlerErrorRedelivers(t *testing.T) {
	bus := newBus(t, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		attempts int
	)

	done := make(chan struct{})

	require.NoError(t, bus.Handle(events.WorkflowDeletedEvent, func(context.Context, any) error {
		mu.Lock()
		defer mu.Unlock()

		attempts++
		if attempts == 1 {
			return errors.New("temporary failure")
		}

		close(done)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-2", events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowDeletedEvent, "wf-2", time.Now()),
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not redelivered")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestRegisterAuditLog(t *testing.T) {
	var out syncBuffer

	logger := slog.New(slog.NewTextHandler(&out, nil))
	bus := newBus(t, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, eventbus.RegisterAuditLog(bus, logger))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-3", events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowCreatedEvent, "wf-3", time.Now()),
		Name:      "Onboarding",
		Status:    models.WorkflowStatusDraft,
	}))

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("workflow created"))
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "workflow_id=wf-3")
	assert.Contains(t, out.String(), "module=audit")
}
