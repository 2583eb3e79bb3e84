package rpc

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the shared surface both transports implement: a single
// request/response call plus lifecycle management. Subscriptions are an
// additional capability only the WebSocket transport offers
// (WSClient.Subscribe).
type Client interface {
	Call(ctx context.Context, method string, params []any) (jsoniter.RawMessage, error)
	Close() error
}

// request is the JSON-RPC 2.0 request envelope.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response is the JSON-RPC 2.0 response envelope. Result is left as raw
// JSON so callers can unmarshal into the concrete type they expect.
type response struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      uint64              `json:"id"`
	Result  jsoniter.RawMessage `json:"result"`
	Error   *errorObject        `json:"error"`
}

type errorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// idGenerator hands out monotonically increasing request ids, starting
// from an arbitrary point — the hook session resumption uses to continue
// numbering across a reconnect (ethrpc.py's _id generator / start_id).
type idGenerator struct {
	next uint64
}

func newIDGenerator(start uint64) *idGenerator { return &idGenerator{next: start} }

func (g *idGenerator) NextID() uint64 {
	id := g.next
	g.next++
	return id
}
