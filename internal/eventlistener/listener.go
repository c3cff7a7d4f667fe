// internal/eventlistener/listener.go
package eventlistener

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

// The listener is a push-based secondary channel: it refreshes decoded
// account state out-of-band while queries keep using the snapshot they
// fetched. Callers must treat displayed state as eventually consistent; an
// in-flight query result is not guaranteed to reflect an update that
// arrives mid-flight.

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	dialAttempts   = 5
)

// AccountUpdate is one account-change notification.
type AccountUpdate struct {
	Key  solana.PublicKey
	Data []byte
	Slot uint64
}

// Listener subscribes to account changes over the RPC WebSocket endpoint
// and forwards decoded updates on a channel.
type Listener struct {
	wsURL  string
	keys   []solana.PublicKey
	logger *zap.Logger

	updates   chan AccountUpdate
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	subs map[uint64]solana.PublicKey // subscription id -> account
	reqs map[uint64]solana.PublicKey // request id -> account
}

// New creates a listener for the given accounts. Run starts it.
func New(wsURL string, keys []solana.PublicKey, logger *zap.Logger) *Listener {
	return &Listener{
		wsURL:   wsURL,
		keys:    keys,
		logger:  logger.Named("eventlistener"),
		updates: make(chan AccountUpdate, 64),
		done:    make(chan struct{}),
		subs:    make(map[uint64]solana.PublicKey),
		reqs:    make(map[uint64]solana.PublicKey),
	}
}

// Updates returns the notification channel. It is closed when the listener
// shuts down.
func (l *Listener) Updates() <-chan AccountUpdate {
	return l.updates
}

// Close stops the listener. Safe to call more than once.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Run connects, subscribes and reads notifications until the context is
// cancelled or Close is called, reconnecting with exponential backoff on
// connection loss.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.updates)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		default:
		}

		conn, err := l.dial(ctx)
		if err != nil {
			return fmt.Errorf("dial %s: %w", l.wsURL, err)
		}

		// The read loop blocks inside ReadServerText with no deadline; the
		// only way to unblock it on shutdown is to close the connection
		// under it.
		watchDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-l.done:
				_ = conn.Close()
			case <-watchDone:
			}
		}()

		err = l.readLoop(ctx, conn)
		close(watchDone)
		_ = conn.Close()
		if err == nil {
			return nil
		}
		l.logger.Warn("websocket connection lost, reconnecting", zap.Error(err))
	}
}

// dial connects with backoff and issues one accountSubscribe per key.
func (l *Listener) dial(ctx context.Context) (net.Conn, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff

	notify := func(err error, wait time.Duration) {
		l.logger.Info("websocket dial retry", zap.Error(err), zap.Duration("backoff", wait))
	}

	operation := func() (net.Conn, error) {
		conn, _, _, err := ws.Dial(ctx, l.wsURL)
		return conn, err
	}

	conn, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(dialAttempts),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.subs = make(map[uint64]solana.PublicKey)
	l.reqs = make(map[uint64]solana.PublicKey)
	l.mu.Unlock()

	for i, key := range l.keys {
		id := uint64(i + 1)
		req := rpcRequest{
			Jsonrpc: "2.0",
			ID:      id,
			Method:  "accountSubscribe",
			Params: []interface{}{
				key.String(),
				map[string]string{"encoding": "base64", "commitment": "confirmed"},
			},
		}
		payload, err := json.Marshal(req)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("marshal subscribe request: %w", err)
		}
		if err := wsutil.WriteClientText(conn, payload); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("subscribe %s: %w", key, err)
		}
		l.mu.Lock()
		l.reqs[id] = key
		l.mu.Unlock()
	}

	l.logger.Debug("subscribed to account changes", zap.Int("accounts", len(l.keys)))
	return conn, nil
}

// readLoop consumes frames until the connection drops or shutdown is
// requested. A nil return means clean shutdown.
func (l *Listener) readLoop(ctx context.Context, conn net.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		default:
		}

		payload, err := wsutil.ReadServerText(conn)
		if err != nil {
			// A read error caused by the shutdown watcher closing the
			// connection is a clean exit, not a connection loss.
			select {
			case <-ctx.Done():
				return nil
			case <-l.done:
				return nil
			default:
			}
			return fmt.Errorf("read frame: %w", err)
		}

		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			l.logger.Warn("unparseable websocket frame", zap.Error(err))
			continue
		}

		switch {
		case msg.ID != nil:
			l.handleConfirmation(&msg)
		case msg.Method == "accountNotification" && msg.Params != nil:
			l.handleNotification(msg.Params)
		}
	}
}

// handleConfirmation maps a subscription id back to its account.
func (l *Listener) handleConfirmation(msg *rpcMessage) {
	var subID uint64
	if err := json.Unmarshal(msg.Result, &subID); err != nil {
		return
	}
	l.mu.Lock()
	if key, ok := l.reqs[*msg.ID]; ok {
		l.subs[subID] = key
		delete(l.reqs, *msg.ID)
	}
	l.mu.Unlock()
}

func (l *Listener) handleNotification(p *notificationParams) {
	l.mu.Lock()
	key, ok := l.subs[p.Subscription]
	l.mu.Unlock()
	if !ok {
		return
	}

	if len(p.Result.Value.Data) == 0 {
		return
	}
	data, err := base64.StdEncoding.DecodeString(p.Result.Value.Data[0])
	if err != nil {
		l.logger.Warn("bad account data in notification",
			zap.String("account", key.String()),
			zap.Error(err))
		return
	}

	update := AccountUpdate{Key: key, Data: data, Slot: p.Result.Context.Slot}
	select {
	case l.updates <- update:
	case <-l.done:
	default:
		// Consumer is behind; drop rather than block the read loop. The
		// next notification carries the newer state anyway.
		l.logger.Debug("dropped account update", zap.String("account", key.String()))
	}
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcMessage struct {
	ID     *uint64             `json:"id,omitempty"`
	Result json.RawMessage     `json:"result,omitempty"`
	Method string              `json:"method,omitempty"`
	Params *notificationParams `json:"params,omitempty"`
}

type notificationParams struct {
	Subscription uint64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Data []string `json:"data"`
		} `json:"value"`
	} `json:"result"`
}
