package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const pingInterval = 15 * time.Second

// pendingCall is an in-flight request awaiting its response, keyed by
// request id (ethrpc.py's WSRPC._inflight).
type pendingCall struct {
	method string
	params []any
	result chan callResult
}

type callResult struct {
	raw jsoniter.RawMessage
	err error
}

// Subscription is a live eth_subscribe stream (ethrpc.py's
// WSRPC._subscriptions entry): notifications arrive on Notifications until
// Unsubscribe or the client closes.
type Subscription struct {
	ID            string
	Method        string
	Params        []any
	Notifications chan jsoniter.RawMessage
}

// WSClient is the multiplexed WebSocket JSON-RPC transport: one connection
// serving many concurrent calls and subscriptions, demultiplexed by
// request id or subscription id (spec.md 4.4, 6).
type WSClient struct {
	uri    string
	logger *zap.Logger
	ids    *idGenerator

	conn *websocket.Conn

	mu            sync.Mutex
	inflight      map[uint64]*pendingCall
	subscriptions map[string]*Subscription
	pendingIDs    mapset.Set[uint64]
	closed        bool

	group  *errgroup.Group
	cancel context.CancelFunc

	metrics *Metrics
}

// WithMetrics attaches m to c; subsequent subscribe/unsubscribe/resume
// activity is recorded against it. Safe to call with a nil m.
func (c *WSClient) WithMetrics(m *Metrics) *WSClient {
	c.metrics = m
	return c
}

var _ Client = (*WSClient)(nil)

// Dial opens a new WebSocket session starting request ids at 0.
func Dial(ctx context.Context, uri string, logger *zap.Logger) (*WSClient, error) {
	return dialFrom(ctx, uri, 0, logger)
}

func dialFrom(ctx context.Context, uri string, startID uint64, logger *zap.Logger) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if err != nil {
		return nil, wrapTransport(err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(runCtx)

	c := &WSClient{
		uri:           uri,
		logger:        logger,
		ids:           newIDGenerator(startID),
		conn:          conn,
		inflight:      make(map[uint64]*pendingCall),
		subscriptions: make(map[string]*Subscription),
		pendingIDs:    mapset.NewSet[uint64](),
		group:         group,
		cancel:        cancel,
	}

	group.Go(func() error { return c.demuxLoop(gctx) })
	group.Go(func() error { return c.pingLoop(gctx) })

	return c, nil
}

func (c *WSClient) demuxLoop(ctx context.Context) error {
	var parser fastjson.Parser
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.failAllPending(&SessionClosedError{})
			return nil
		}

		v, err := parser.ParseBytes(msg)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("rpc: dropping unparseable websocket frame", zap.Error(err))
			}
			continue
		}

		if errObj := v.Get("error"); errObj != nil {
			id := v.GetUint64("id")
			c.resolve(id, callResult{err: &RemoteError{
				Code:    errObj.GetInt("code"),
				Message: string(errObj.GetStringBytes("message")),
			}})
			continue
		}

		if idVal := v.Get("id"); idVal != nil {
			id := v.GetUint64("id")
			result := v.Get("result")
			var raw jsoniter.RawMessage
			if result != nil {
				raw = append(raw, result.MarshalTo(nil)...)
			}
			c.resolve(id, callResult{raw: raw})
			continue
		}

		if sub := v.Get("params", "subscription"); sub != nil {
			subID := string(sub.GetStringBytes())
			if subID == "" {
				subID = sub.String()
			}
			result := v.Get("params", "result")
			var raw jsoniter.RawMessage
			if result != nil {
				raw = append(raw, result.MarshalTo(nil)...)
			}
			c.dispatchNotification(subID, raw)
			continue
		}
	}
}

func (c *WSClient) resolve(id uint64, res callResult) {
	c.mu.Lock()
	call, ok := c.inflight[id]
	if ok {
		delete(c.inflight, id)
		c.pendingIDs.Remove(id)
	}
	c.mu.Unlock()
	if ok {
		call.result <- res
	}
}

func (c *WSClient) dispatchNotification(subID string, raw jsoniter.RawMessage) {
	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case sub.Notifications <- raw:
	default:
		if c.logger != nil {
			c.logger.Warn("rpc: subscription notification dropped, consumer too slow",
				zap.String("subscription", subID))
		}
	}
}

func (c *WSClient) failAllPending(err error) {
	c.mu.Lock()
	calls := c.inflight
	c.inflight = make(map[uint64]*pendingCall)
	c.pendingIDs = mapset.NewSet[uint64]()
	c.mu.Unlock()
	for _, call := range calls {
		call.result <- callResult{err: err}
	}
}

func (c *WSClient) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return nil // demuxLoop will observe the same failure on read
			}
		}
	}
}

// Call sends a JSON-RPC request and blocks until its response arrives, the
// context is canceled, or the connection drops.
func (c *WSClient) Call(ctx context.Context, method string, params []any) (jsoniter.RawMessage, error) {
	return c.call(ctx, method, params, nil)
}

func (c *WSClient) call(ctx context.Context, method string, params []any, reuse *pendingCall) (jsoniter.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &SessionClosedError{}
	}
	id := c.ids.NextID()
	pc := reuse
	if pc == nil {
		pc = &pendingCall{method: method, params: params, result: make(chan callResult, 1)}
	}
	c.inflight[id] = pc
	c.pendingIDs.Add(id)
	c.mu.Unlock()

	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, wrapTransport(fmt.Errorf("encode request: %w", err))
	}
	if c.logger != nil {
		c.logger.Debug("rpc: dispatching websocket request",
			zap.Uint64("id", id), zap.String("method", method), zap.Stringer("trace", uuid.New()))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return nil, wrapTransport(err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-pc.result:
		return res.raw, res.err
	}
}

// Subscribe opens an eth_subscribe stream and returns a handle whose
// Notifications channel receives each subsequent push.
func (c *WSClient) Subscribe(ctx context.Context, params []any) (*Subscription, error) {
	raw, err := c.Call(ctx, "eth_subscribe", params)
	if err != nil {
		return nil, err
	}
	var subID string
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, wrapProtocol(fmt.Errorf("decode subscription id: %w", err))
	}
	sub := &Subscription{
		ID:            subID,
		Method:        "eth_subscribe",
		Params:        params,
		Notifications: make(chan jsoniter.RawMessage, 256),
	}
	c.mu.Lock()
	c.subscriptions[subID] = sub
	count := len(c.subscriptions)
	c.mu.Unlock()
	c.metrics.setSubscriptions(count)
	return sub, nil
}

// SubscribeLogs subscribes to matching logs (ethrpc.py's
// subscribe_to_address_events).
func (c *WSClient) SubscribeLogs(ctx context.Context, addresses []string, topics []string) (*Subscription, error) {
	filter := map[string]any{"address": addresses}
	if len(topics) > 0 {
		filter["topics"] = topics
	}
	return c.Subscribe(ctx, []any{"logs", filter})
}

// SubscribeNewHeads subscribes to new block headers (ethrpc.py's
// subscribe_to_headers).
func (c *WSClient) SubscribeNewHeads(ctx context.Context) (*Subscription, error) {
	return c.Subscribe(ctx, []any{"newHeads"})
}

// Unsubscribe cancels a subscription.
func (c *WSClient) Unsubscribe(ctx context.Context, subID string) (bool, error) {
	raw, err := c.Call(ctx, "eth_unsubscribe", []any{subID})
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	delete(c.subscriptions, subID)
	count := len(c.subscriptions)
	c.mu.Unlock()
	c.metrics.setSubscriptions(count)
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, wrapProtocol(err)
	}
	return ok, nil
}

// Close shuts the connection down, cancels its background tasks, and fails
// any call still awaiting a response with SessionClosedError rather than
// leaving it blocked forever.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.failAllPending(&SessionClosedError{})

	c.cancel()
	err := c.conn.Close()
	_ = c.group.Wait()
	return err
}
