package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_blockNumber", req.Method)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":"0x10"}`, req.ID)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	raw, err := c.Call(context.Background(), "eth_blockNumber", nil)
	require.NoError(t, err)
	require.JSONEq(t, `"0x10"`, string(raw))
}

func TestHTTPClientNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	_, err := c.Call(context.Background(), "eth_blockNumber", nil)
	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestHTTPClientRemoteErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32000,"message":"boom"}}`, req.ID)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	_, err := c.Call(context.Background(), "eth_call", nil)
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, -32000, remoteErr.Code)
}

func TestHTTPClientMissingResultFallsBackToRawPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":0,"status":"accepted"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	raw, err := c.Call(context.Background(), "eth_sendRawTransaction", nil)
	require.NoError(t, err)
	require.Contains(t, string(raw), "accepted")
}

// wsEcho is a minimal JSON-RPC WebSocket server used to exercise demuxing
// and subscriptions without a real node.
type wsEcho struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    []*websocket.Conn
}

func newWSEcho() *wsEcho { return &wsEcho{} }

func (s *wsEcho) handler(delayFirstReply, reorderReplies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		var firstID *uint64
		var firstMethod string
		var firstParams []any
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req request
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}

			if req.Method == "eth_subscribe" {
				subID := fmt.Sprintf("0xsub%d", req.ID)
				conn.WriteMessage(websocket.TextMessage, []byte(
					fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%q}`, req.ID, subID)))
				go func(subID string) {
					time.Sleep(10 * time.Millisecond)
					conn.WriteMessage(websocket.TextMessage, []byte(
						fmt.Sprintf(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":%q,"result":"0xhead"}}`, subID)))
				}(subID)
				continue
			}

			if delayFirstReply && firstID == nil {
				id := req.ID
				firstID = &id
				firstMethod = req.Method
				firstParams = req.Params
				continue
			}

			reply := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%q}`, req.ID, "ok-"+req.Method)
			conn.WriteMessage(websocket.TextMessage, []byte(reply))

			if reorderReplies && firstID != nil {
				late := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%q}`, *firstID, "ok-"+firstMethod)
				conn.WriteMessage(websocket.TextMessage, []byte(late))
				_ = firstParams
				firstID = nil
			}
		}
	}
}

func TestWSClientDemuxesOutOfOrderReplies(t *testing.T) {
	echo := newWSEcho()
	srv := httptest.NewServer(echo.handler(true, true))
	defer srv.Close()
	uri := "ws" + srv.URL[len("http"):]

	c, err := Dial(context.Background(), uri, nil)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	results := make([]string, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		raw, err := c.Call(context.Background(), "eth_first", nil)
		require.NoError(t, err)
		json.Unmarshal(raw, &results[0])
	}()
	go func() {
		defer wg.Done()
		raw, err := c.Call(context.Background(), "eth_second", nil)
		require.NoError(t, err)
		json.Unmarshal(raw, &results[1])
	}()
	wg.Wait()

	require.Equal(t, "ok-eth_first", results[0])
	require.Equal(t, "ok-eth_second", results[1])
}

func TestWSClientSubscriptionNotifications(t *testing.T) {
	echo := newWSEcho()
	srv := httptest.NewServer(echo.handler(false, false))
	defer srv.Close()
	uri := "ws" + srv.URL[len("http"):]

	c, err := Dial(context.Background(), uri, nil)
	require.NoError(t, err)
	defer c.Close()

	sub, err := c.SubscribeNewHeads(context.Background())
	require.NoError(t, err)

	select {
	case notif := <-sub.Notifications:
		require.JSONEq(t, `"0xhead"`, string(notif))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscription notification")
	}
}

func TestCloseFailsPendingCalls(t *testing.T) {
	echo := newWSEcho()
	srv := httptest.NewServer(echo.handler(true, false))
	defer srv.Close()
	uri := "ws" + srv.URL[len("http"):]

	c, err := Dial(context.Background(), uri, nil)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, callErr := c.Call(context.Background(), "eth_neverReplies", nil)
		errCh <- callErr
	}()

	// Give the request time to reach the server and register as inflight
	// before Close runs, so Close has a pending call to fail.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case callErr := <-errCh:
		var sessionClosed *SessionClosedError
		require.ErrorAs(t, callErr, &sessionClosed)
	case <-time.After(time.Second):
		t.Fatal("Call did not return after Close; pending call leaked")
	}
}

func TestSessionResumptionPreservesSubscriptions(t *testing.T) {
	echo := newWSEcho()
	srv := httptest.NewServer(echo.handler(false, false))
	defer srv.Close()
	uri := "ws" + srv.URL[len("http"):]

	c, err := Dial(context.Background(), uri, nil)
	require.NoError(t, err)

	sub, err := c.SubscribeNewHeads(context.Background())
	require.NoError(t, err)

	// Drain the initial push from the first connection before resuming.
	select {
	case <-sub.Notifications:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial notification")
	}

	require.NoError(t, c.Close())
	state, err := c.GetPending()
	require.NoError(t, err)

	resumed, err := ResumeSession(context.Background(), uri, state, nil)
	require.NoError(t, err)
	defer resumed.Close()

	select {
	case notif := <-sub.Notifications:
		require.JSONEq(t, `"0xhead"`, string(notif))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification forwarded after resumption")
	}
}
