package txn

import (
	"encoding/json"

	"github.com/erigontech/ethkit/common"
)

// txJSON mirrors the teacher's own txJSON marshalling idiom
// (core/types/transaction_marshalling.go), narrowed to the legacy/Celo
// field set this module supports.
type txJSON struct {
	Nonce    common.Uint64    `json:"nonce"`
	GasPrice common.Big       `json:"gasPrice"`
	Gas      common.Uint64    `json:"gas"`
	To       common.Address   `json:"to"`
	Value    common.Big       `json:"value"`
	Data     common.Bytes     `json:"input"`

	GasCurrency     *common.Address `json:"gasCurrency,omitempty"`
	GasFeeRecipient *common.Address `json:"gasFeeRecipient,omitempty"`

	ChainID *common.Uint64 `json:"chainId,omitempty"`
	V       *common.Big    `json:"v,omitempty"`
	R       *common.Big    `json:"r,omitempty"`
	S       *common.Big    `json:"s,omitempty"`

	Hash *common.Hash `json:"hash,omitempty"`
}

// MarshalJSON renders the transaction in the JSON object shape JSON-RPC
// methods like eth_getTransactionByHash use for a transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	j := txJSON{
		Nonce:           common.Uint64(t.Nonce),
		GasPrice:        common.Big(*t.GasPrice.ToBig()),
		Gas:             common.Uint64(t.Gas),
		To:              t.To,
		Value:           common.Big(*t.Value.ToBig()),
		Data:            common.Bytes(t.Data),
		GasCurrency:     t.GasCurrency,
		GasFeeRecipient: t.GasFeeRecipient,
	}
	if t.Signature != nil {
		chainID := common.Uint64(t.ChainID)
		j.ChainID = &chainID
		v := common.Big(*t.Signature.V.ToBig())
		r := common.Big(*t.Signature.R.ToBig())
		s := common.Big(*t.Signature.S.ToBig())
		j.V, j.R, j.S = &v, &r, &s
	}
	return json.Marshal(j)
}
