package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_InvalidPattern(t *testing.T) {
	b := New(nil)
	_, err := b.Subscribe("no-leading-slash", func(context.Context, Event) error { return nil }, false)
	require.Error(t, err)
}

func TestPublish_InvokesMatchingSubscriberWithBoundParams(t *testing.T) {
	b := New(nil)
	var got Event
	_, err := b.Subscribe("/request/:id/get/dashboard", func(_ context.Context, evt Event) error {
		got = evt
		return nil
	}, false)
	require.NoError(t, err)

	b.Publish(context.Background(), "/request/abc123/get/dashboard", map[string]any{"k": "v"})

	assert.Equal(t, "abc123", got.Params["id"])
	assert.Equal(t, "v", got.Payload["k"])
}

func TestPublish_HandlerErrorDoesNotStopSiblingsOrCorruptInFlight(t *testing.T) {
	b := New(nil)
	var s2Calls int32

	_, err := b.Subscribe("/t", func(context.Context, Event) error {
		return errors.New("boom")
	}, false)
	require.NoError(t, err)

	_, err = b.Subscribe("/t", func(context.Context, Event) error {
		atomic.AddInt32(&s2Calls, 1)
		return nil
	}, false)
	require.NoError(t, err)

	b.Publish(context.Background(), "/t", nil)

	assert.Equal(t, int32(1), s2Calls)
	assert.Equal(t, int64(0), b.InFlight())
}

func TestPublish_HandlerPanicIsContained(t *testing.T) {
	b := New(nil)
	var called int32
	_, err := b.Subscribe("/t", func(context.Context, Event) error {
		panic("nope")
	}, false)
	require.NoError(t, err)
	_, err = b.Subscribe("/t", func(context.Context, Event) error {
		atomic.AddInt32(&called, 1)
		return nil
	}, false)
	require.NoError(t, err)

	b.Publish(context.Background(), "/t", nil)
	assert.Equal(t, int32(1), called)
}

func TestOnceSubscription_FiresOnlyOnce(t *testing.T) {
	b := New(nil)
	var calls int32
	_, err := b.Subscribe("/ping", func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, true)
	require.NoError(t, err)

	b.Publish(context.Background(), "/ping", nil)
	b.Publish(context.Background(), "/ping", nil)

	assert.Equal(t, int32(1), calls)
}

func TestOnce_ResolvesOnNextMatchingPublish(t *testing.T) {
	b := New(nil)
	ch, err := b.Once(context.Background(), "/ping")
	require.NoError(t, err)

	go b.Publish(context.Background(), "/ping", map[string]any{"hello": "world"})

	select {
	case evt := <-ch:
		assert.Equal(t, "world", evt.Payload["hello"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for once() to resolve")
	}

	b.Publish(context.Background(), "/ping", nil)
}

func TestUnsubscribeHandle_StopsDelivery(t *testing.T) {
	b := New(nil)
	var calls int32
	sub, err := b.Subscribe("/t", func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, false)
	require.NoError(t, err)

	b.UnsubscribeHandle(sub)
	b.Publish(context.Background(), "/t", nil)

	assert.Equal(t, int32(0), calls)
}

func TestUnsubscribeTopic_RemovesAllMatchingSubscribers(t *testing.T) {
	b := New(nil)
	var calls int32
	_, err := b.Subscribe("/t", func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, false)
	require.NoError(t, err)

	b.UnsubscribeTopic("/t")
	b.Publish(context.Background(), "/t", nil)

	assert.Equal(t, int32(0), calls)
}

func TestWildcardPattern_MatchesRemainderOfPath(t *testing.T) {
	b := New(nil)
	var capturedRest string
	_, err := b.Subscribe("/assets/*", func(_ context.Context, evt Event) error {
		capturedRest = evt.Params["*"]
		return nil
	}, false)
	require.NoError(t, err)

	b.Publish(context.Background(), "/assets/css/site.css", nil)
	assert.Equal(t, "css/site.css", capturedRest)
}

func TestRecursivePublish_RemainsConsistent(t *testing.T) {
	b := New(nil)
	var inner int32
	_, err := b.Subscribe("/outer", func(ctx context.Context, evt Event) error {
		b.Publish(ctx, "/inner", nil)
		return nil
	}, false)
	require.NoError(t, err)
	_, err = b.Subscribe("/inner", func(context.Context, Event) error {
		atomic.AddInt32(&inner, 1)
		return nil
	}, false)
	require.NoError(t, err)

	b.Publish(context.Background(), "/outer", nil)
	assert.Equal(t, int32(1), inner)
	assert.Equal(t, int64(0), b.InFlight())
}
