package rpc

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PendingCall describes an in-flight request carried across a session
// resumption: the caller is still waiting on its original Call to return,
// so the resumed connection replays the request using the same result
// channel instead of minting a new one.
type PendingCall struct {
	Method string
	Params []any
	call   *pendingCall
}

// SessionState is what GetPending exposes from a connection the caller
// intends to replace: everything needed to rebuild an equivalent session
// elsewhere (ethrpc.py's get_pending/from_pending pair).
type SessionState struct {
	NextID        uint64
	Pending       []PendingCall
	Subscriptions []*Subscription

	metrics *Metrics
}

// GetPending snapshots the requests still awaiting a reply and the live
// subscriptions on a connection the caller has already closed, so a new
// connection can resume from the same request-id sequence. Session
// resumption is always an explicit caller action — nothing here reconnects
// automatically.
func (c *WSClient) GetPending() (SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		return SessionState{}, fmt.Errorf("rpc: GetPending requires a closed connection")
	}

	var pending []PendingCall
	for _, call := range c.inflight {
		pending = append(pending, PendingCall{Method: call.method, Params: call.params, call: call})
	}
	var subs []*Subscription
	for _, s := range c.subscriptions {
		subs = append(subs, s)
	}

	nextID := uint64(0)
	for id := range c.inflight {
		if id+1 > nextID {
			nextID = id + 1
		}
	}
	if nextID < c.ids.next {
		nextID = c.ids.next
	}

	return SessionState{NextID: nextID, Pending: pending, Subscriptions: subs, metrics: c.metrics}, nil
}

// ResumeSession opens a fresh WebSocket connection continuing a prior
// session's request-id sequence, replaying its still-pending calls and
// re-establishing its subscriptions (ethrpc.py's WSRPC.from_pending).
func ResumeSession(ctx context.Context, uri string, state SessionState, logger *zap.Logger) (*WSClient, error) {
	c, err := dialFrom(ctx, uri, state.NextID, logger)
	if err != nil {
		return nil, err
	}
	if state.metrics != nil {
		c.WithMetrics(state.metrics)
		state.metrics.observeResumption()
	}

	for _, p := range state.Pending {
		pc := p.call
		if pc == nil {
			pc = &pendingCall{method: p.Method, params: p.Params, result: make(chan callResult, 1)}
		}
		go func(method string, params []any, reuse *pendingCall) {
			if _, err := c.call(ctx, method, params, reuse); err != nil && logger != nil {
				logger.Warn("rpc: replaying pending request after resume failed",
					zap.String("method", method), zap.Error(err))
			}
		}(p.Method, p.Params, pc)
	}

	for _, sub := range state.Subscriptions {
		newSub, err := c.Subscribe(ctx, sub.Params)
		if err != nil {
			if logger != nil {
				logger.Warn("rpc: resubscribing after resume failed", zap.Error(err))
			}
			continue
		}
		// Callers that kept a reference to the old Subscription read from
		// its Notifications channel; forward the new stream into it so
		// resumption is transparent to them.
		go func(old, fresh *Subscription) {
			for notif := range fresh.Notifications {
				old.Notifications <- notif
			}
		}(sub, newSub)
	}

	return c, nil
}
