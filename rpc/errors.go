// Package rpc implements a JSON-RPC 2.0 client over HTTP and WebSocket
// transports, including WebSocket subscription demultiplexing and session
// resumption (spec.md 4.4, 6).
package rpc

import (
	"fmt"

	"github.com/pkg/errors"
)

// RemoteError is a {"error": ...} JSON-RPC response: the call reached the
// node, but the node rejected it.
type RemoteError struct {
	Code    int
	Message string
	Data    any
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: remote error %d: %s", e.Code, e.Message)
}

// TransportError wraps a failure to deliver the request at all: a
// non-2xx HTTP status, a closed WebSocket, a dial failure.
type TransportError struct {
	cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("rpc: transport: %v", e.cause) }
func (e *TransportError) Unwrap() error { return e.cause }
func wrapTransport(cause error) error   { return &TransportError{cause: errors.WithStack(cause)} }

// SessionClosedError is returned by calls made after Close, by calls still
// pending when Close runs, and by inflight calls whose connection dropped.
type SessionClosedError struct{}

func (e *SessionClosedError) Error() string { return "rpc: session is closed" }

// HostedProviderError is returned by SendTransaction against a Methods
// marked Hosted: a hosted provider (Infura and similar) has no unlocked
// account to sign with, so asking it to is always a mistake.
type HostedProviderError struct{}

func (e *HostedProviderError) Error() string {
	return "rpc: cannot send an unsigned transaction through a hosted provider"
}

// ProtocolError marks a response that cannot be decoded as expected: a body
// that is not a JSON-RPC 2.0 envelope, a result that does not unmarshal into
// the type the caller expects, or a subscription id that is not a string.
type ProtocolError struct {
	cause error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("rpc: protocol: %v", e.cause) }
func (e *ProtocolError) Unwrap() error { return e.cause }
func wrapProtocol(cause error) error   { return &ProtocolError{cause: errors.WithStack(cause)} }
