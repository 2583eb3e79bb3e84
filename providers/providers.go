// Package providers resolves a network label and API key into a concrete
// JSON-RPC endpoint URI, and offers Dial helpers that build an rpc.Client
// directly from that label (original_source/ether/infura.py's URI template,
// generalized from a single hard-coded provider to a small labeled table).
package providers

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed networks.toml
var networksTOML []byte

// Provider is a named JSON-RPC endpoint family, with separate URI templates
// for the HTTP and WebSocket transports. Templates use "{network}" and
// "{key}" placeholders.
type Provider struct {
	Name      string            `toml:"name"`
	HTTP      string            `toml:"http"`
	WebSocket string            `toml:"ws"`
	Networks  map[string]string `toml:"networks"`
}

type table struct {
	Providers map[string]Provider `toml:"providers"`
}

var registry = mustLoad(networksTOML)

func mustLoad(data []byte) table {
	var t table
	if err := toml.Unmarshal(data, &t); err != nil {
		panic(fmt.Sprintf("providers: embedded network table is malformed: %v", err))
	}
	return t
}

// networkLabel resolves network into the label provider p uses for it in
// its URIs, e.g. "mainnet" -> "eth" for ankr. A provider with no network
// table passes network through unchanged.
func networkLabel(p Provider, network string) (string, error) {
	if alias, ok := p.Networks[network]; ok {
		return alias, nil
	}
	if len(p.Networks) == 0 {
		return network, nil
	}
	return "", fmt.Errorf("providers: %s does not support network %q", p.Name, network)
}

// HTTPURI builds the HTTP(S) JSON-RPC endpoint for providerName/network,
// authenticated with key.
func HTTPURI(providerName, network, key string) (string, error) {
	p, ok := registry.Providers[providerName]
	if !ok {
		return "", fmt.Errorf("providers: unknown provider %q", providerName)
	}
	label, err := networkLabel(p, network)
	if err != nil {
		return "", err
	}
	return render(p.HTTP, label, key), nil
}

// WebSocketURI builds the wss:// JSON-RPC endpoint for providerName/network,
// authenticated with key (infura.py's URI = 'wss://{network}.infura.io/ws/v3/{project_id}').
func WebSocketURI(providerName, network, key string) (string, error) {
	p, ok := registry.Providers[providerName]
	if !ok {
		return "", fmt.Errorf("providers: unknown provider %q", providerName)
	}
	label, err := networkLabel(p, network)
	if err != nil {
		return "", err
	}
	return render(p.WebSocket, label, key), nil
}

func render(template, network, key string) string {
	out := make([]byte, 0, len(template))
	for i := 0; i < len(template); i++ {
		switch {
		case hasPrefixAt(template, i, "{network}"):
			out = append(out, network...)
			i += len("{network}") - 1
		case hasPrefixAt(template, i, "{key}"):
			out = append(out, key...)
			i += len("{key}") - 1
		default:
			out = append(out, template[i])
		}
	}
	return string(out)
}

func hasPrefixAt(s string, i int, prefix string) bool {
	if i+len(prefix) > len(s) {
		return false
	}
	return s[i:i+len(prefix)] == prefix
}
