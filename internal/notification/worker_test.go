package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/testutil"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func reply(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, nil, &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchNeverBlocks(t *testing.T) {
	wp := NewWorkerPool(1, nil, &webpush.Options{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(wp.jobs)+5; i++ {
			wp.Dispatch(int64(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Len(t, wp.jobs, cap(wp.jobs))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB := testutil.NewSQLite(t)
	fx := testutil.NewFixtures(t, gormDB)
	st := store.NewGormStore(gormDB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := fx.Building()
	room := fx.Room(b.ID, 2)

	wp := NewWorkerPool(1, st, &webpush.Options{})
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		sub := &model.PushSubscription{Endpoint: "https://example.com/push", P256DH: "p256dh", Auth: "auth"}
		require.NoError(t, st.PutSubscription(ctx, sub, []int64{room.ID}))

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, s *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://example.com/push", s.Endpoint)
				assert.Equal(t, "p256dh", s.Keys.P256dh)
				assert.Equal(t, "Комната "+room.Number+", корпус "+b.Number+": место освободилось", string(payload))
				return reply(http.StatusCreated), nil
			},
		}

		wp.Dispatch(room.ID)
		wg.Wait()

		_, err := st.GetSubscription(ctx, sub.Endpoint)
		assert.NoError(t, err)
		require.NoError(t, st.DeleteSubscription(ctx, sub.Endpoint))
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		sub := &model.PushSubscription{Endpoint: "https://example.com/expired", P256DH: "p", Auth: "a"}
		require.NoError(t, st.PutSubscription(ctx, sub, []int64{room.ID}))

		wp.sender = &mockSender{
			SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				return reply(http.StatusGone), nil
			},
		}

		wp.Dispatch(room.ID)

		assert.Eventually(t, func() bool {
			_, err := st.GetSubscription(ctx, sub.Endpoint)
			return errors.Is(err, store.ErrSubscriptionNotFound)
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("skips rooms nobody watches", func(t *testing.T) {
		other := fx.Room(b.ID, 1)
		called := make(chan struct{}, 1)
		wp.sender = &mockSender{
			SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				called <- struct{}{}
				return reply(http.StatusCreated), nil
			},
		}

		wp.Dispatch(other.ID)
		select {
		case <-called:
			t.Fatal("notification sent for a room without subscriptions")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
