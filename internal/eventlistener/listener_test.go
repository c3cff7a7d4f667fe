package eventlistener

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testListener(keys ...solana.PublicKey) *Listener {
	return New("ws://localhost:8900", keys, zap.NewNop())
}

func confirm(l *Listener, requestID, subID uint64) {
	result, _ := json.Marshal(subID)
	id := requestID
	l.handleConfirmation(&rpcMessage{ID: &id, Result: result})
}

func notification(subID uint64, slot uint64, data []byte) *notificationParams {
	p := &notificationParams{Subscription: subID}
	p.Result.Context.Slot = slot
	p.Result.Value.Data = []string{base64.StdEncoding.EncodeToString(data), "base64"}
	return p
}

func TestNotificationDelivery(t *testing.T) {
	key := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	l := testListener(key)
	l.reqs[1] = key

	confirm(l, 1, 42)
	assert.Empty(t, l.reqs, "confirmed request ids are dropped")
	assert.Equal(t, key, l.subs[42])

	l.handleNotification(notification(42, 1234, []byte{0xDE, 0xAD}))

	select {
	case update := <-l.Updates():
		assert.Equal(t, key, update.Key)
		assert.Equal(t, uint64(1234), update.Slot)
		assert.Equal(t, []byte{0xDE, 0xAD}, update.Data)
	default:
		t.Fatal("expected a buffered update")
	}
}

func TestNotificationForUnknownSubscription(t *testing.T) {
	l := testListener()
	l.handleNotification(notification(99, 1, []byte{1}))

	select {
	case <-l.Updates():
		t.Fatal("unknown subscription must not produce an update")
	default:
	}
}

func TestNotificationWithBadData(t *testing.T) {
	key := solana.PublicKey{}
	l := testListener(key)
	l.subs[7] = key

	p := &notificationParams{Subscription: 7}
	p.Result.Value.Data = []string{"not-base64!!!", "base64"}
	l.handleNotification(p)

	select {
	case <-l.Updates():
		t.Fatal("undecodable data must be dropped")
	default:
	}
}

// idleServer accepts one websocket connection, drains client frames and
// then goes silent, never sending a frame back. Signals on subscribed once
// the first subscribe request arrives.
func idleServer(t *testing.T, subscribed chan<- struct{}) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		first := true
		for {
			if _, err := wsutil.ReadClientText(conn); err != nil {
				_ = conn.Close()
				return
			}
			if first {
				first = false
				close(subscribed)
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestCloseUnblocksIdleRun(t *testing.T) {
	subscribed := make(chan struct{})
	l := New(idleServer(t, subscribed), []solana.PublicKey{{}}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("listener never subscribed")
	}

	// no frame will ever arrive; Close alone must unblock the read
	l.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	_, open := <-l.Updates()
	assert.False(t, open, "updates channel is closed on shutdown")
}

func TestCancelUnblocksIdleRun(t *testing.T) {
	subscribed := make(chan struct{})
	l := New(idleServer(t, subscribed), []solana.PublicKey{{}}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("listener never subscribed")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestSlowConsumerDropsUpdates(t *testing.T) {
	key := solana.PublicKey{}
	l := testListener(key)
	l.subs[1] = key

	// one more than the channel buffer; the overflow is dropped, the read
	// loop never blocks
	for i := 0; i < 65; i++ {
		l.handleNotification(notification(1, uint64(i), []byte{byte(i)}))
	}

	count := 0
	for {
		select {
		case <-l.Updates():
			count++
			continue
		default:
		}
		break
	}
	require.Equal(t, 64, count)
}
