package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/erigontech/ethkit/rpc"
)

// DialHTTP builds an HTTP rpc.Client for providerName/network.
func DialHTTP(providerName, network, key string, logger *zap.Logger) (*rpc.HTTPClient, error) {
	uri, err := HTTPURI(providerName, network, key)
	if err != nil {
		return nil, err
	}
	return rpc.NewHTTPClient(uri, logger), nil
}

// DialWS opens a WebSocket rpc.Client for providerName/network.
func DialWS(ctx context.Context, providerName, network, key string, logger *zap.Logger) (*rpc.WSClient, error) {
	uri, err := WebSocketURI(providerName, network, key)
	if err != nil {
		return nil, err
	}
	return rpc.Dial(ctx, uri, logger)
}

// DialWithBackoff retries the initial WebSocket dial with exponential
// backoff, an opt-in convenience for a flaky first connection (e.g. a
// provider that is still warming up). It governs only getting the first
// connection established: once dialed, reconnecting after a drop is always
// an explicit caller action via rpc.ResumeSession, never automatic.
func DialWithBackoff(ctx context.Context, providerName, network, key string, logger *zap.Logger) (*rpc.WSClient, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute

	var attempt int
	var client *rpc.WSClient
	op := func() error {
		c, err := DialWS(ctx, providerName, network, key, logger)
		if err != nil {
			attempt++
			if logger != nil {
				logger.Warn("providers: dial attempt failed, retrying",
					zap.Int("attempt", attempt), zap.Error(err))
			}
			return err
		}
		client = c
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return client, nil
}
