package rpc

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/ethkit/common"
	"github.com/erigontech/ethkit/crypto"
	"github.com/erigontech/ethkit/txn"
)

func signedExample(t *testing.T) txn.Transaction {
	to, err := common.HexToAddress("0x" + strings.Repeat("35", 20))
	require.NoError(t, err)
	tx := txn.Transaction{
		Kind:     txn.Standard,
		Nonce:    9,
		GasPrice: uint256.NewInt(20_000_000_000),
		Gas:      21000,
		To:       to,
		Value:    uint256.NewInt(1),
		ChainID:  1,
	}
	priv, err := hex.DecodeString(strings.Repeat("46", 32))
	require.NoError(t, err)
	var c crypto.Secp256k1
	signed, err := tx.Sign(c, priv)
	require.NoError(t, err)
	return signed
}

func TestSendTransactionRejectedOnHostedProvider(t *testing.T) {
	m := New(NewHTTPClient("http://unused.invalid", nil)).WithHosted(true)
	_, err := m.SendTransaction(context.Background(), common.Address{}, signedExample(t))
	var hostedErr *HostedProviderError
	require.ErrorAs(t, err, &hostedErr)
}

func TestSendTransactionEncodesParams(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured = req.Params[0]
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":"0xabc"}`))
	}))
	defer srv.Close()

	m := New(NewHTTPClient(srv.URL, nil))
	from, err := common.HexToAddress("0x" + strings.Repeat("11", 20))
	require.NoError(t, err)

	hash, err := m.SendTransaction(context.Background(), from, signedExample(t))
	require.NoError(t, err)
	require.Equal(t, "0xabc", hash)
	require.Equal(t, "0x9", captured["nonce"])
	require.Equal(t, "0x5208", captured["gas"])
}

func TestPreflightTxRecoversSignerFromSignature(t *testing.T) {
	var capturedFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []jsoniter.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var call map[string]any
		require.NoError(t, json.Unmarshal(req.Params[0], &call))
		capturedFrom = call["from"].(string)
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":"0x"}`))
	}))
	defer srv.Close()

	m := New(NewHTTPClient(srv.URL, nil))
	signed := signedExample(t)
	expected, err := signed.RecoverSender(crypto.Secp256k1{})
	require.NoError(t, err)

	_, err = m.PreflightTx(context.Background(), signed)
	require.NoError(t, err)
	require.Equal(t, expected.Hex(), capturedFrom)
}

func TestPreflightTxUsesDummySenderWhenUnsigned(t *testing.T) {
	var capturedFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []jsoniter.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var call map[string]any
		require.NoError(t, json.Unmarshal(req.Params[0], &call))
		capturedFrom = call["from"].(string)
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":"0x"}`))
	}))
	defer srv.Close()

	m := New(NewHTTPClient(srv.URL, nil))
	unsigned := signedExample(t)
	unsigned.Signature = nil

	_, err := m.PreflightTx(context.Background(), unsigned)
	require.NoError(t, err)
	require.Equal(t, dummySender.Hex(), capturedFrom)
}

func TestGetPastContractLogsWrapsGetLogs(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured = req.Params[0]
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":[]}`))
	}))
	defer srv.Close()

	m := New(NewHTTPClient(srv.URL, nil))
	addr, err := common.HexToAddress("0x" + strings.Repeat("22", 20))
	require.NoError(t, err)

	_, err = m.GetPastContractLogs(context.Background(), addr, []string{"0xtopic"})
	require.NoError(t, err)
	require.Equal(t, addr.Hex(), captured["address"])
	require.Equal(t, "earliest", captured["fromBlock"])
	require.Equal(t, "latest", captured["toBlock"])
}
