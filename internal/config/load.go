package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names. Each maps to an environment variable with EnvPrefix, dashes
// replaced by underscores.
const (
	FlagNetwork           = "network"
	FlagHorizonURL        = "horizon-url"
	FlagSorobanRPCURL     = "soroban-rpc-url"
	FlagEscrowContractID  = "escrow-contract-id"
	FlagStorageURL        = "storage-url"
	FlagStorageDriver     = "storage-driver"
	FlagStorageKey        = "storage-key"
	FlagSecretSeed        = "secret-seed"
	FlagStrictNetwork     = "strict-network"
	FlagHorizonTimeout    = "horizon-timeout"
	FlagDevelopment       = "development"
	FlagListenAddr        = "listen-addr"
	FlagAllowedOrigins    = "allowed-origins"
	FlagSessionSigningKey = "session-signing-key"
	FlagSessionCookie     = "session-cookie"
	FlagSessionTTL        = "session-ttl"
	FlagSessionSecure     = "session-secure"
	FlagAutoApprove       = "auto-approve"

	EnvPrefix = "TRUSTLANCE"
)

var (
	commonFlags = []string{
		FlagNetwork, FlagHorizonURL, FlagSorobanRPCURL, FlagEscrowContractID,
		FlagStorageURL, FlagStorageDriver, FlagStorageKey, FlagSecretSeed,
		FlagStrictNetwork, FlagHorizonTimeout, FlagDevelopment,
	}
	serverFlags = []string{
		FlagListenAddr, FlagAllowedOrigins, FlagSessionSigningKey, FlagSessionCookie, FlagSessionTTL,
		FlagSessionSecure, FlagAutoApprove,
	}
)

// RegisterFlags declares the settings every binary accepts. Defaults are
// applied by Validate, so empty flags mean "use the default".
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagNetwork, "", "ledger network: PUBLIC, TESTNET or FUTURENET (default TESTNET)")
	flags.String(FlagHorizonURL, "", "Horizon base URL (default from network)")
	flags.String(FlagSorobanRPCURL, "", "Soroban RPC URL (default from network)")
	flags.String(FlagEscrowContractID, "", "escrow contract id; empty means the contract is not deployed")
	flags.String(FlagStorageURL, "", "escrow storage location (default "+defaultStorageURL+")")
	flags.String(FlagStorageDriver, "", "storage driver: auto, memory, file, sqlite, postgres or pgx")
	flags.String(FlagStorageKey, "", "storage key holding the escrow ledger")
	flags.String(FlagSecretSeed, "", "secret seed of the local signing agent; empty means no agent")
	flags.Bool(FlagStrictNetwork, false, "fail connections when the agent reports another network")
	flags.Duration(FlagHorizonTimeout, 0, "Horizon request timeout (default 10s)")
	flags.Bool(FlagDevelopment, false, "development logging")
}

// RegisterServerFlags declares the HTTP settings of trustlanced.
func RegisterServerFlags(flags *pflag.FlagSet) {
	RegisterFlags(flags)
	flags.String(FlagListenAddr, "", "HTTP listen address (default "+defaultListenAddr+")")
	flags.String(FlagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	flags.String(FlagSessionSigningKey, "", "HS256 key for session cookies (required)")
	flags.String(FlagSessionCookie, "", "session cookie name")
	flags.Duration(FlagSessionTTL, 0, "session idle lifetime (default 24h)")
	flags.Bool(FlagSessionSecure, false, "mark the session cookie Secure (implied by https origins)")
	flags.Bool(FlagAutoApprove, false, "let the server signing agent sign every request without a prompt")
}

// Load reads flags and TRUSTLANCE_* environment variables into a validated Config.
func Load(flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(flags, commonFlags)
	if err != nil {
		return Config{}, err
	}
	cfg := readConfig(v)
	return cfg, cfg.Validate()
}

// LoadServer is Load plus the HTTP settings.
func LoadServer(flags *pflag.FlagSet) (ServerConfig, error) {
	v, err := newViper(flags, append(append([]string{}, commonFlags...), serverFlags...))
	if err != nil {
		return ServerConfig{}, err
	}
	cfg := ServerConfig{
		Config:            readConfig(v),
		ListenAddr:        strings.TrimSpace(v.GetString(FlagListenAddr)),
		AllowedOrigins:    ParseAllowedOrigins(v.GetString(FlagAllowedOrigins)),
		SessionSigningKey: v.GetString(FlagSessionSigningKey),
		SessionCookieName: strings.TrimSpace(v.GetString(FlagSessionCookie)),
		SessionTTL:        v.GetDuration(FlagSessionTTL),
		SessionSecure:     v.GetBool(FlagSessionSecure),
		AutoApprove:       v.GetBool(FlagAutoApprove),
	}
	return cfg, cfg.Validate()
}

func newViper(flags *pflag.FlagSet, names []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range names {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(name, flag); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func readConfig(v *viper.Viper) Config {
	return Config{
		NetworkName:      strings.TrimSpace(v.GetString(FlagNetwork)),
		HorizonURL:       strings.TrimSpace(v.GetString(FlagHorizonURL)),
		SorobanRPCURL:    strings.TrimSpace(v.GetString(FlagSorobanRPCURL)),
		EscrowContractID: strings.TrimSpace(v.GetString(FlagEscrowContractID)),
		StorageURL:       strings.TrimSpace(v.GetString(FlagStorageURL)),
		StorageDriver:    strings.TrimSpace(v.GetString(FlagStorageDriver)),
		StorageKey:       strings.TrimSpace(v.GetString(FlagStorageKey)),
		SecretSeed:       strings.TrimSpace(v.GetString(FlagSecretSeed)),
		StrictNetwork:    v.GetBool(FlagStrictNetwork),
		HorizonTimeout:   v.GetDuration(FlagHorizonTimeout),
		Development:      v.GetBool(FlagDevelopment),
	}
}
