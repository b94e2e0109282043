// Package bridge implements a wallet provider backed by a local wallet-bridge
// process reachable over websocket. The bridge owns the actual extension
// session; this package only speaks its request/response protocol.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/coachpo/walletgate/internal/observability"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultRequestsPerSec   = 20
	dialMaxRetries          = 3
)

// request is a correlated bridge call.
type request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is the bridge's reply to a request.
type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *bridgeError    `json:"error,omitempty"`
}

type bridgeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *bridgeError) Error() string {
	return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message)
}

// ClientConfig configures the bridge transport.
type ClientConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
	RequestsPerSec   float64
	Logger           observability.Logger
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = defaultRequestsPerSec
	}
	if c.Logger == nil {
		c.Logger = observability.Log()
	}
	return c
}

// Client is a single websocket connection to the wallet bridge with
// request/response correlation.
type Client struct {
	cfg     ClientConfig
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	connMu sync.RWMutex
	conn   *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan response

	closeOnce sync.Once
}

// Dial connects to the bridge, retrying transient failures with exponential
// backoff inside the handshake window.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.URL == "" {
		return nil, errors.New("bridge: url required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()

	backoffCfg := backoff.NewExponentialBackOff()
	var conn *websocket.Conn
	var err error
	for attempt := 0; attempt < dialMaxRetries; attempt++ {
		conn, _, err = websocket.Dial(dialCtx, cfg.URL, nil)
		if err == nil {
			break
		}
		sleep := backoffCfg.NextBackOff()
		select {
		case <-dialCtx.Done():
			return nil, fmt.Errorf("bridge: dial %s: %w", cfg.URL, err)
		case <-time.After(sleep):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", cfg.URL, err)
	}

	clientCtx, clientCancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		ctx:     clientCtx,
		cancel:  clientCancel,
		conn:    conn,
		pending: make(map[string]chan response),
	}
	go c.readLoop(conn)
	return c, nil
}

// Call sends a request and blocks until the correlated response, the request
// timeout, or connection loss.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}

	req := request{ID: uuid.NewString(), Method: method, Params: raw}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("bridge: marshal %s request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("bridge: throttle %s: %w", method, err)
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return errors.New("bridge: not connected")
	}

	wait := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = wait
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("bridge: write %s request: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("bridge: %s: %w", method, ctx.Err())
	case <-c.ctx.Done():
		return errors.New("bridge: connection closed")
	case resp := <-wait:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("bridge: decode %s result: %w", method, err)
		}
		return nil
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.Close()
	for {
		_, payload, err := conn.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				c.cfg.Logger.Debug("bridge read loop ended", observability.Err(err))
			}
			return
		}
		var resp response
		if err := json.Unmarshal(payload, &resp); err != nil {
			c.cfg.Logger.Debug("bridge frame discarded", observability.Err(err))
			continue
		}
		c.pendingMu.Lock()
		wait := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if wait == nil {
			continue
		}
		select {
		case wait <- resp:
		default:
		}
	}
}

// Close tears down the connection and unblocks in-flight calls.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusNormalClosure, "shutdown")
			c.conn = nil
		}
		c.connMu.Unlock()
	})
}

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("bridge: marshal params: %w", err)
	}
	return raw, nil
}
