// Package config holds the runtime settings shared by the trustlance binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/internal/storage"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

const (
	defaultStorageURL     = "file://./trustlance-storage.json"
	defaultHorizonTimeout = 10 * time.Second
	defaultListenAddr     = "127.0.0.1:8080"
	defaultAllowedOrigin  = "http://localhost:3000"
	defaultSessionCookie  = "trustlance_session"
	defaultSessionTTL     = 24 * time.Hour
	minSigningKeyBytes    = 32
)

// ErrInvalidConfig reports settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config aggregates the settings every binary needs.
type Config struct {
	NetworkName      string
	HorizonURL       string
	SorobanRPCURL    string
	EscrowContractID string
	StorageURL       string
	StorageDriver    string
	StorageKey       string
	SecretSeed       string
	StrictNetwork    bool
	HorizonTimeout   time.Duration
	Development      bool

	// Network is resolved by Validate. NetworkCoerced is true when
	// NetworkName was set but not recognized.
	Network        stellar.Network
	NetworkCoerced bool
}

// Validate fills defaults and resolves the network.
func (cfg *Config) Validate() error {
	name, known := stellar.ParseNetworkName(cfg.NetworkName)
	cfg.NetworkCoerced = strings.TrimSpace(cfg.NetworkName) != "" && !known
	cfg.Network = stellar.ResolveNetwork(string(name)).WithEndpoints(cfg.HorizonURL, cfg.SorobanRPCURL)
	cfg.NetworkName = string(cfg.Network.Name)
	cfg.HorizonURL = cfg.Network.HorizonURL
	cfg.SorobanRPCURL = cfg.Network.SorobanRPCURL

	cfg.StorageURL = defaultIfEmpty(cfg.StorageURL, defaultStorageURL)
	cfg.StorageDriver = strings.ToLower(defaultIfEmpty(cfg.StorageDriver, storage.DriverAuto))
	cfg.StorageKey = defaultIfEmpty(cfg.StorageKey, ledger.DefaultStorageKey)
	cfg.EscrowContractID = strings.TrimSpace(cfg.EscrowContractID)
	cfg.SecretSeed = strings.TrimSpace(cfg.SecretSeed)
	if cfg.HorizonTimeout <= 0 {
		cfg.HorizonTimeout = defaultHorizonTimeout
	}

	switch cfg.StorageDriver {
	case storage.DriverAuto, storage.DriverMemory, storage.DriverFile, storage.DriverSQLite, storage.DriverPostgres, storage.DriverPgx:
	default:
		return fmt.Errorf("%w: storage driver %q is not supported", ErrInvalidConfig, cfg.StorageDriver)
	}
	if cfg.EscrowContractID != "" && !stellar.IsValidContractAddress(cfg.EscrowContractID) {
		return fmt.Errorf("%w: escrow contract id %q is not a contract address", ErrInvalidConfig, cfg.EscrowContractID)
	}
	return nil
}

// ServerConfig adds the HTTP settings of trustlanced.
type ServerConfig struct {
	Config
	ListenAddr        string
	AllowedOrigins    []string
	SessionSigningKey string
	SessionCookieName string
	SessionTTL        time.Duration

	// SessionSecure marks the session cookie Secure. Validate turns it on when
	// any allowed origin is served over https.
	SessionSecure bool

	// AutoApprove lets the server's signing agent sign every request without a
	// prompt. Without it the agent grants access but declines to sign.
	AutoApprove bool
}

// Validate fills defaults and checks the HTTP settings.
func (cfg *ServerConfig) Validate() error {
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	for _, origin := range cfg.AllowedOrigins {
		if strings.HasPrefix(strings.ToLower(origin), "https://") {
			cfg.SessionSecure = true
		}
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("%w: session signing key is required", ErrInvalidConfig)
	}
	if len(cfg.SessionSigningKey) < minSigningKeyBytes {
		return fmt.Errorf("%w: session signing key must be at least %d bytes", ErrInvalidConfig, minSigningKeyBytes)
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
