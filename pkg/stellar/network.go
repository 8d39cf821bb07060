package stellar

import (
	"strings"

	"github.com/stellar/go/network"
)

// NetworkName enumerates the ledger networks the application can target.
type NetworkName string

const (
	NetworkPublic    NetworkName = "PUBLIC"
	NetworkTestnet   NetworkName = "TESTNET"
	NetworkFuturenet NetworkName = "FUTURENET"

	// DefaultNetwork is used when no network is configured.
	DefaultNetwork = NetworkTestnet
)

// Network bundles the constants needed to build a replay-protected transaction
// for one ledger network.
type Network struct {
	Name          NetworkName
	DisplayName   string
	Passphrase    string
	HorizonURL    string
	SorobanRPCURL string
}

var networks = map[NetworkName]Network{
	NetworkPublic: {
		Name:          NetworkPublic,
		DisplayName:   "Public Global Stellar Network",
		Passphrase:    network.PublicNetworkPassphrase,
		HorizonURL:    "https://horizon.stellar.org",
		SorobanRPCURL: "https://soroban-rpc.mainnet.stellar.gateway.fm",
	},
	NetworkTestnet: {
		Name:          NetworkTestnet,
		DisplayName:   "Test SDF Network",
		Passphrase:    network.TestNetworkPassphrase,
		HorizonURL:    "https://horizon-testnet.stellar.org",
		SorobanRPCURL: "https://soroban-testnet.stellar.org",
	},
	NetworkFuturenet: {
		Name:          NetworkFuturenet,
		DisplayName:   "Test SDF Future Network",
		Passphrase:    network.FutureNetworkPassphrase,
		HorizonURL:    "https://horizon-futurenet.stellar.org",
		SorobanRPCURL: "https://rpc-futurenet.stellar.org",
	},
}

// ParseNetworkName recognizes a network name case-insensitively. The second
// result is false for unrecognized names.
func ParseNetworkName(raw string) (NetworkName, bool) {
	name := NetworkName(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := networks[name]; ok {
		return name, true
	}
	return DefaultNetwork, false
}

// ResolveNetwork maps a network name to its constants. Unknown or empty names
// resolve to TESTNET; use ParseNetworkName to tell the two apart.
func ResolveNetwork(raw string) Network {
	name, _ := ParseNetworkName(raw)
	return networks[name]
}

// WithEndpoints returns a copy with non-empty overrides applied.
func (n Network) WithEndpoints(horizonURL string, sorobanRPCURL string) Network {
	if trimmed := strings.TrimSpace(horizonURL); trimmed != "" {
		n.HorizonURL = strings.TrimRight(trimmed, "/")
	}
	if trimmed := strings.TrimSpace(sorobanRPCURL); trimmed != "" {
		n.SorobanRPCURL = strings.TrimRight(trimmed, "/")
	}
	return n
}

// Matches reports whether an agent-reported network identifies this network.
// The passphrase wins when present.
func (n Network) Matches(reportedName string, reportedPassphrase string) bool {
	if reportedPassphrase != "" {
		return reportedPassphrase == n.Passphrase
	}
	return strings.EqualFold(strings.TrimSpace(reportedName), string(n.Name))
}

// ExplorerTransactionURL links a transaction on StellarExpert.
func (n Network) ExplorerTransactionURL(hash string) string {
	return n.explorerBase() + "/tx/" + hash
}

// ExplorerContractURL links a contract on StellarExpert.
func (n Network) ExplorerContractURL(contractID string) string {
	return n.explorerBase() + "/contract/" + contractID
}

// ChainViewerURL links a transaction on stellarchain.io.
func (n Network) ChainViewerURL(hash string) string {
	if n.Name == NetworkPublic {
		return "https://stellarchain.io/tx/" + hash
	}
	return "https://testnet.stellarchain.io/tx/" + hash
}

func (n Network) explorerBase() string {
	if n.Name == NetworkPublic {
		return "https://stellarexpert.net"
	}
	return "https://stellarexpert-test.net"
}
