package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/healthcare-ms/go-attest-sdk/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "0x8f49e4492f97ca6334e15117fc6c4c06f4652cac7fb27ed4ecc5ef9ea6ad5820"

var configKeys = []string{
	"ATTEST_NETWORK", "ATTEST_CHAIN_ID", "ATTEST_DOMAIN_NAME", "ATTEST_DOMAIN_VERSION",
	"ATTEST_VERIFYING_CONTRACT", "PINATA_ENDPOINT", "PINATA_JWT", "PINATA_PIN_NAME",
	"ATTEST_WALLET_RPC", "ATTEST_REMOTE_SIGNER_URL", "ATTEST_REMOTE_SIGNER_API_KEY",
	"ATTEST_REMOTE_SIGNER_ACCOUNT", "ATTEST_SIGNER_KEY", "ATTEST_HTTP_TIMEOUT", "ATTEST_LOG_LEVEL",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Network)
	assert.Equal(t, int64(31337), cfg.ResolvedChainID())
	assert.Equal(t, "HealthcareManagementSystem", cfg.DomainName)
	assert.Equal(t, "1", cfg.DomainVersion)
	assert.Equal(t, "https://api.pinata.cloud/pinning/pinJSONToIPFS", cfg.PinataEndpoint)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.PinataJWT)

	d, err := cfg.Domain()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5f5f4A35A3d1aefA3E0f9d5F703496f51686C297"), d.VerifyingContract)
	assert.Equal(t, int64(31337), d.ChainID)
}

func TestParseNetworkPresets(t *testing.T) {
	tests := []struct {
		network string
		chainID string
		want    int64
	}{
		{"polygon", "", 137},
		{"Sepolia", "", 11155111},
		{"amoy", "", 80002},
		{"localhost", "1", 1},
		{"nowhere", "5", 5},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ATTEST_NETWORK", tt.network)
			if tt.chainID != "" {
				t.Setenv("ATTEST_CHAIN_ID", tt.chainID)
			}

			cfg, err := Parse()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ResolvedChainID())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown network", "ATTEST_NETWORK", "nowhere"},
		{"bad chain id", "ATTEST_CHAIN_ID", "abc"},
		{"negative chain id", "ATTEST_CHAIN_ID", "-1"},
		{"bad timeout", "ATTEST_HTTP_TIMEOUT", "soon"},
		{"bad log level", "ATTEST_LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestParseInvalidDomain(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATTEST_VERIFYING_CONTRACT", "0x1234")

	cfg, err := Parse()
	require.NoError(t, err)

	_, err = cfg.Domain()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATTEST_DOMAIN_NAME", "FromProcess")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "PINATA_JWT=file-jwt\nATTEST_NETWORK=polygon\nATTEST_DOMAIN_NAME=FromFile\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("PINATA_JWT")
		_ = os.Unsetenv("ATTEST_NETWORK")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-jwt", cfg.PinataJWT)
	assert.Equal(t, int64(137), cfg.ResolvedChainID())
	assert.Equal(t, "FromProcess", cfg.DomainName)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestPublisherRequiresJWT(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse()
	require.NoError(t, err)

	_, err = cfg.Publisher(slog.Default())
	assert.Error(t, err)

	cfg.PinataJWT = "jwt"
	pub, err := cfg.Publisher(slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, pub)
}

func TestKeyHolderPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		h, closeFn, err := Config{}.KeyHolder(ctx)
		require.NoError(t, err)
		defer closeFn()
		assert.Nil(t, h)
	})

	t.Run("local", func(t *testing.T) {
		h, closeFn, err := Config{SignerKey: testPrivateKey}.KeyHolder(ctx)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &signer.LocalKeyHolder{}, h)
	})

	t.Run("remote over local", func(t *testing.T) {
		cfg := Config{
			SignerKey:           testPrivateKey,
			RemoteSignerURL:     "http://127.0.0.1:1/sign",
			RemoteSignerAPIKey:  "key",
			RemoteSignerAccount: "0x36e4418dafb9d1e5fff7408f5a57981e240c8f8e",
			HTTPTimeout:         time.Second,
		}
		h, closeFn, err := cfg.KeyHolder(ctx)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &signer.RemoteKeyHolder{}, h)
	})

	t.Run("wallet over remote", func(t *testing.T) {
		cfg := Config{
			WalletRPC:       "http://127.0.0.1:1",
			RemoteSignerURL: "http://127.0.0.1:1/sign",
			SignerKey:       testPrivateKey,
		}
		h, closeFn, err := cfg.KeyHolder(ctx)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &signer.RPCKeyHolder{}, h)
	})

	t.Run("bad local key", func(t *testing.T) {
		_, _, err := Config{SignerKey: "0xnothex"}.KeyHolder(ctx)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "0xnothex")
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: slog.LevelWarn}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNetworks(t *testing.T) {
	nets := Networks()
	require.Len(t, nets, 4)
	nets[0].ChainID = 1

	n, ok := LookupNetwork("localhost")
	require.True(t, ok)
	assert.Equal(t, int64(31337), n.ChainID)
}
