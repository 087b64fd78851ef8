package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/channels/gochannel"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/eventbus"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBusDeliversTypedEvents(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	received := make(chan interface{}, 1)

	err := bus.Handle(events.JobQueuedEvent, func(_ context.Context, event interface{}) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Subscribe(ctx))

	original := events.JobQueued{
		BaseEvent:   events.NewBaseEvent(events.JobQueuedEvent, "job-1"),
		TaskType:    "image",
		ModelID:     "z-image-turbo",
		PreferLocal: true,
	}

	require.NoError(t, bus.Publish(ctx, "job-1", original))

	select {
	case event := <-received:
		queued, ok := event.(*events.JobQueued)
		require.True(t, ok)
		assert.Equal(t, "job-1", queued.JobID)
		assert.Equal(t, "image", queued.TaskType)
		assert.Equal(t, "z-image-turbo", queued.ModelID)
		assert.True(t, queued.PreferLocal)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestWatermillEventBusProgressFlowsOnItsOwnTopic(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	ctx := context.Background()

	// Watch the lifecycle topic directly; progress must never appear there.
	lifecycle, err := sub.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	go func() {
		for msg := range lifecycle {
			msg.Ack()
		}
	}()

	received := make(chan interface{}, 1)

	require.NoError(t, bus.Handle(events.JobProgressEvent, func(_ context.Context, event interface{}) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	progress := events.JobProgress{
		BaseEvent: events.NewBaseEvent(events.JobProgressEvent, "job-2"),
		NodeID:    "5",
		Fraction:  0.25,
		Phase:     "running",
	}

	require.NoError(t, bus.Publish(ctx, "job-2", progress))

	select {
	case event := <-received:
		got, ok := event.(*events.JobProgress)
		require.True(t, ok)
		assert.Equal(t, "job-2", got.JobID)
		assert.InDelta(t, 0.25, got.Fraction, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("progress handler never received the event")
	}

	select {
	case msg := <-lifecycle:
		t.Fatalf("progress event leaked onto the lifecycle topic: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatermillEventBusAcksUnhandledEvents(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered: the publish must still complete because the
	// message is acked, not parked.
	event := events.JobCompleted{
		BaseEvent: events.NewBaseEvent(events.JobCompletedEvent, "job-3"),
		Outputs:   []models.Artifact{{Name: "out.png", Kind: models.ArtifactImage}},
	}

	require.NoError(t, bus.Publish(ctx, "job-3", event))
}

func TestGenerateID(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
