package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPURIRendersTemplate(t *testing.T) {
	uri, err := HTTPURI("infura", "mainnet", "abc123")
	require.NoError(t, err)
	require.Equal(t, "https://mainnet.infura.io/v3/abc123", uri)
}

func TestWebSocketURIRendersTemplate(t *testing.T) {
	uri, err := WebSocketURI("infura", "celo", "abc123")
	require.NoError(t, err)
	require.Equal(t, "wss://celo-mainnet.infura.io/ws/v3/abc123", uri)
}

func TestUnknownProviderErrors(t *testing.T) {
	_, err := HTTPURI("does-not-exist", "mainnet", "key")
	require.Error(t, err)
}

func TestUnsupportedNetworkErrors(t *testing.T) {
	_, err := HTTPURI("alchemy", "celo", "key")
	require.Error(t, err)
}

func TestAnkrUsesPathStyleTemplate(t *testing.T) {
	uri, err := HTTPURI("ankr", "mainnet", "key")
	require.NoError(t, err)
	require.Equal(t, "https://rpc.ankr.com/eth/key", uri)
}
