// Package config reads process configuration from the environment and an
// optional .env file, and assembles the components it describes.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/healthcare-ms/go-attest-sdk/publisher"
	"github.com/healthcare-ms/go-attest-sdk/signer"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded by Load when no files are named and it exists.
const DefaultEnvFile = ".env"

// Config is the process configuration.
type Config struct {
	Network           string `env:"ATTEST_NETWORK" envDefault:"localhost"`
	ChainID           int64  `env:"ATTEST_CHAIN_ID"`
	DomainName        string `env:"ATTEST_DOMAIN_NAME" envDefault:"HealthcareManagementSystem"`
	DomainVersion     string `env:"ATTEST_DOMAIN_VERSION" envDefault:"1"`
	VerifyingContract string `env:"ATTEST_VERIFYING_CONTRACT" envDefault:"0x5f5f4A35A3d1aefA3E0f9d5F703496f51686C297"`

	PinataEndpoint string `env:"PINATA_ENDPOINT" envDefault:"https://api.pinata.cloud/pinning/pinJSONToIPFS"`
	PinataJWT      string `env:"PINATA_JWT"`
	PinName        string `env:"PINATA_PIN_NAME"`

	WalletRPC           string `env:"ATTEST_WALLET_RPC"`
	RemoteSignerURL     string `env:"ATTEST_REMOTE_SIGNER_URL"`
	RemoteSignerAPIKey  string `env:"ATTEST_REMOTE_SIGNER_API_KEY"`
	RemoteSignerAccount string `env:"ATTEST_REMOTE_SIGNER_ACCOUNT"`
	SignerKey           string `env:"ATTEST_SIGNER_KEY"`

	HTTPTimeout time.Duration `env:"ATTEST_HTTP_TIMEOUT" envDefault:"30s"`
	LogLevel    slog.Level    `env:"ATTEST_LOG_LEVEL" envDefault:"info"`
}

// Load reads the given .env files, or DefaultEnvFile if present, into the
// process environment and parses Config from it. Variables already set in
// the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			envFiles = []string{DefaultEnvFile}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", DefaultEnvFile, err)
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}
	return Parse()
}

// Parse reads Config from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ChainID == 0 {
		if _, ok := LookupNetwork(cfg.Network); !ok {
			return Config{}, fmt.Errorf("unknown network %q", cfg.Network)
		}
	}
	if cfg.ChainID < 0 {
		return Config{}, fmt.Errorf("invalid chain id %d", cfg.ChainID)
	}
	return cfg, nil
}

// ResolvedChainID is the explicit chain id, or the network preset's.
func (c Config) ResolvedChainID() int64 {
	if c.ChainID != 0 {
		return c.ChainID
	}
	n, _ := LookupNetwork(c.Network)
	return n.ChainID
}

// Domain builds the signing domain.
func (c Config) Domain() (typeddata.Domain, error) {
	return typeddata.NewDomain(c.DomainName, c.DomainVersion, c.ResolvedChainID(), c.VerifyingContract)
}

// Publisher creates the Pinata client. It fails when PINATA_JWT is unset.
func (c Config) Publisher(logger *slog.Logger) (*publisher.PinataClient, error) {
	opts := []publisher.PinataOption{
		publisher.WithEndpoint(c.PinataEndpoint),
		publisher.WithTimeout(c.HTTPTimeout),
		publisher.WithLogger(logger),
	}
	if c.PinName != "" {
		opts = append(opts, publisher.WithPinName(c.PinName))
	}
	pub, err := publisher.NewPinataClient(c.PinataJWT, opts...)
	if err != nil {
		return nil, fmt.Errorf("PINATA_JWT: %w", err)
	}
	return pub, nil
}

// KeyHolder selects the key holder: wallet RPC, then remote signer, then a
// local key. It returns a nil holder when none is configured, and a close
// function the caller must run when done.
func (c Config) KeyHolder(ctx context.Context) (signer.KeyHolder, func(), error) {
	noop := func() {}

	switch {
	case c.WalletRPC != "":
		h, err := signer.DialRPCKeyHolder(ctx, c.WalletRPC)
		if err != nil {
			return nil, noop, err
		}
		return h, h.Close, nil
	case c.RemoteSignerURL != "":
		h, err := signer.NewRemoteKeyHolder(c.RemoteSignerURL, c.RemoteSignerAPIKey, c.RemoteSignerAccount,
			signer.WithRemoteTimeout(c.HTTPTimeout))
		if err != nil {
			return nil, noop, fmt.Errorf("remote signer: %w", err)
		}
		return h, noop, nil
	case c.SignerKey != "":
		h, err := signer.NewLocalKeyHolder(c.SignerKey)
		if err != nil {
			return nil, noop, errors.New("ATTEST_SIGNER_KEY is not a valid private key")
		}
		return h, noop, nil
	default:
		return nil, noop, nil
	}
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// Network is a chain preset.
type Network struct {
	Name    string `json:"name"`
	ChainID int64  `json:"chainId"`
}

var networks = []Network{
	{Name: "localhost", ChainID: 31337},
	{Name: "polygon", ChainID: 137},
	{Name: "sepolia", ChainID: 11155111},
	{Name: "amoy", ChainID: 80002},
}

// Networks returns the known presets.
func Networks() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}

// LookupNetwork finds a preset by case-insensitive name.
func LookupNetwork(name string) (Network, bool) {
	for _, n := range networks {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Network{}, false
}
