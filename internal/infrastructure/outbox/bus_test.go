package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domoutbox "github.com/seifenwerk/orderdesk/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func startedBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(nil)
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })
	return bus
}

func waitFor(t *testing.T, ch <-chan domoutbox.Event) domoutbox.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := startedBus(t)

	got := make(chan domoutbox.Event, 1)
	bus.Subscribe("stock.reduced", func(ctx context.Context, e domoutbox.Event) error {
		got <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "stock.reduced"}))
	require.Equal(t, "stock.reduced", waitFor(t, got).EventName())
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := startedBus(t)

	first := make(chan domoutbox.Event, 1)
	second := make(chan domoutbox.Event, 1)
	bus.Subscribe("order.created", func(ctx context.Context, e domoutbox.Event) error {
		first <- e
		return nil
	})
	bus.Subscribe("order.created", func(ctx context.Context, e domoutbox.Event) error {
		second <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	waitFor(t, first)
	waitFor(t, second)
}

func TestEventWithoutSubscriberIsDropped(t *testing.T) {
	bus := startedBus(t)
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody.listens"}))
}

func TestPanickingHandlerDoesNotKillDispatch(t *testing.T) {
	bus := startedBus(t)

	got := make(chan domoutbox.Event, 1)
	bus.Subscribe("order.created", func(ctx context.Context, e domoutbox.Event) error {
		panic("handler exploded")
	})
	bus.Subscribe("order.created", func(ctx context.Context, e domoutbox.Event) error {
		got <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	waitFor(t, got)

	// The bus keeps dispatching after the panic.
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	waitFor(t, got)
}

func TestPublishNilEventIsNoop(t *testing.T) {
	bus := startedBus(t)
	require.NoError(t, bus.Publish(context.Background(), nil))
}
