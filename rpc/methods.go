package rpc

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"

	"github.com/erigontech/ethkit/common"
	"github.com/erigontech/ethkit/crypto"
	"github.com/erigontech/ethkit/txn"
)

// dummySender is the address used to preflight an unsigned transaction,
// matching ethrpc.py's preflight_tx fallback of '0x' + '11' * 20.
var dummySender = common.BytesToAddress([]byte{
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
})

// Methods is the shared eth_* method surface, implemented against either
// transport via the Client interface (ethrpc.py's BaseRPC).
type Methods struct {
	Client Client
	Crypto crypto.Crypto

	// Hosted marks a provider with no unlocked account of its own (Infura
	// and similar), which rejects SendTransaction outright rather than
	// attempting to sign server-side (ethrpc.py's infura_key guard).
	Hosted bool
}

func New(c Client) Methods { return Methods{Client: c, Crypto: crypto.Secp256k1{}} }

// WithHosted marks m as talking to a hosted provider with no signing
// account of its own.
func (m Methods) WithHosted(hosted bool) Methods {
	m.Hosted = hosted
	return m
}

func (m Methods) call(ctx context.Context, method string, params []any, out any) error {
	raw, err := m.Client.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return wrapProtocol(fmt.Errorf("decode %s result: %w", method, err))
	}
	return nil
}

// GetBalance returns the wei balance of address at block.
func (m Methods) GetBalance(ctx context.Context, address common.Address, block BlockTag) (string, error) {
	var out string
	err := m.call(ctx, "eth_getBalance", []any{address.Hex(), block.Param()}, &out)
	return out, err
}

// GetTransactionCount returns the pending nonce for account, matching
// ethrpc.py's get_nonce (block fixed to "pending").
func (m Methods) GetTransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	var out string
	if err := m.call(ctx, "eth_getTransactionCount", []any{account.Hex(), "pending"}, &out); err != nil {
		return 0, err
	}
	return parseHexUint(out)
}

// LogFilter selects which logs GetLogs returns.
type LogFilter struct {
	Address   string
	FromBlock BlockTag
	ToBlock   BlockTag
	Topics    []string
	BlockHash string // mutually exclusive with FromBlock/ToBlock
}

// GetLogs fetches logs matching filter.
func (m Methods) GetLogs(ctx context.Context, filter LogFilter) ([]jsoniter.RawMessage, error) {
	params := map[string]any{}
	if filter.Address != "" {
		params["address"] = filter.Address
	}
	if len(filter.Topics) > 0 {
		params["topics"] = filter.Topics
	}
	if filter.BlockHash != "" {
		params["blockhash"] = filter.BlockHash
	} else {
		params["fromBlock"] = filter.FromBlock.Param()
		params["toBlock"] = filter.ToBlock.Param()
	}

	var out []jsoniter.RawMessage
	err := m.call(ctx, "eth_getLogs", []any{params}, &out)
	return out, err
}

// GetPastContractLogs is a thin GetLogs wrapper for the common case of
// fetching a single contract's historical events by topic (ethrpc.py's
// get_past_contract_logs).
func (m Methods) GetPastContractLogs(ctx context.Context, address common.Address, topics []string) ([]jsoniter.RawMessage, error) {
	return m.GetLogs(ctx, LogFilter{
		Address:   address.Hex(),
		Topics:    topics,
		FromBlock: Earliest(),
		ToBlock:   Latest(),
	})
}

// SendTransaction asks the node to sign and send tx on behalf of from,
// rather than broadcasting an already-signed one (ethrpc.py's
// send_transaction). Hosted providers have no account to sign with, so
// Methods marked Hosted reject this outright rather than let the node try
// and fail.
func (m Methods) SendTransaction(ctx context.Context, from common.Address, tx txn.Transaction) (string, error) {
	if m.Hosted {
		return "", &HostedProviderError{}
	}

	params := map[string]any{
		"from":     from.Hex(),
		"to":       tx.To.Hex(),
		"data":     "0x" + hexEncode(tx.Data),
		"nonce":    encodeIfInt(tx.Nonce),
		"gas":      encodeIfInt(tx.Gas),
		"gasPrice": hexQuantityBig(tx.GasPrice),
		"value":    hexQuantityBig(tx.Value),
	}
	if tx.GasCurrency != nil {
		params["gasCurrency"] = tx.GasCurrency.Hex()
	}
	if tx.GasFeeRecipient != nil {
		params["gasFeeRecipient"] = tx.GasFeeRecipient.Hex()
	}

	var out string
	err := m.call(ctx, "eth_sendTransaction", []any{params}, &out)
	return out, err
}

// Broadcast submits a raw signed transaction and returns its hash
// (ethrpc.py's broadcast).
func (m Methods) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	if len(rawTxHex) < 2 || rawTxHex[:2] != "0x" {
		rawTxHex = "0x" + rawTxHex
	}
	var out string
	err := m.call(ctx, "eth_sendRawTransaction", []any{rawTxHex}, &out)
	return out, err
}

// GetTransactionReceipt fetches a transaction's receipt as raw JSON; the
// node returns null for a transaction that has not yet been mined.
func (m Methods) GetTransactionReceipt(ctx context.Context, txID common.Hash) (jsoniter.RawMessage, error) {
	var out jsoniter.RawMessage
	err := m.call(ctx, "eth_getTransactionReceipt", []any{txID.Hex()}, &out)
	return out, err
}

// Call runs eth_call against the given transaction at block.
func (m Methods) Call(ctx context.Context, from, to common.Address, data []byte, block BlockTag) (string, error) {
	params := map[string]any{
		"from": from.Hex(),
		"to":   to.Hex(),
		"data": "0x" + hexEncode(data),
	}
	var out string
	err := m.call(ctx, "eth_call", []any{params, block.Param()}, &out)
	return out, err
}

// PreflightTx simulates a transaction via eth_call before broadcasting it
// (ethrpc.py's preflight_tx). The sender is recovered from tx's signature
// when it is signed, falling back to a dummy address otherwise, exactly as
// ethrpc.py's preflight_tx does around its AttributeError catch.
func (m Methods) PreflightTx(ctx context.Context, tx txn.Transaction) (string, error) {
	sender := dummySender
	if tx.IsSigned() {
		recovered, err := tx.RecoverSender(m.Crypto)
		if err != nil {
			return "", err
		}
		sender = recovered
	}
	return m.Call(ctx, sender, tx.To, tx.Data, Latest())
}

func parseHexUint(s string) (uint64, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var n uint64
	for _, c := range s {
		n <<= 4
		switch {
		case c >= '0' && c <= '9':
			n |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			n |= uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= uint64(c-'A') + 10
		default:
			return 0, fmt.Errorf("rpc: invalid hex quantity %q", s)
		}
	}
	return n, nil
}

// hexQuantityBig renders n as a "0x"-prefixed hex-quantity string, the
// JSON-RPC wire form for a uint256 field.
func hexQuantityBig(n *uint256.Int) string {
	if n == nil {
		return "0x0"
	}
	return fmt.Sprintf("0x%x", n.ToBig())
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
