package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Siasom1/orderly-counter/params"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantURL      string
		wantAccounts []string
	}{
		{
			name:         "nothing set",
			env:          map[string]string{},
			wantURL:      "",
			wantAccounts: []string{},
		},
		{
			name:         "url only",
			env:          map[string]string{params.EnvRPCURL: "https://rpc.example.test"},
			wantURL:      "https://rpc.example.test",
			wantAccounts: []string{},
		},
		{
			name:         "key only",
			env:          map[string]string{params.EnvPrivateKey: "0xabc123"},
			wantURL:      "",
			wantAccounts: []string{"0xabc123"},
		},
		{
			name: "both set",
			env: map[string]string{
				params.EnvRPCURL:     "https://rpc.example.test",
				params.EnvPrivateKey: "0xabc123",
			},
			wantURL:      "https://rpc.example.test",
			wantAccounts: []string{"0xabc123"},
		},
		{
			name:         "url is not trimmed",
			env:          map[string]string{params.EnvRPCURL: "  not a url  "},
			wantURL:      "  not a url  ",
			wantAccounts: []string{},
		},
		{
			name:         "empty key is still a credential",
			env:          map[string]string{params.EnvPrivateKey: ""},
			wantURL:      "",
			wantAccounts: []string{""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FromEnv(MapLookup(tc.env))

			assert.Equal(t, params.CompilerVersion, cfg.CompilerVersion)
			require.Len(t, cfg.Networks, 1)

			n, ok := cfg.Network(params.NetworkName)
			require.True(t, ok)
			assert.Equal(t, tc.wantURL, n.URL)
			assert.Equal(t, tc.wantAccounts, n.Accounts)
			assert.LessOrEqual(t, len(n.Accounts), 1)
		})
	}
}

func TestFromEnv_CompilerVersionIsConstant(t *testing.T) {
	for _, env := range []map[string]string{
		{},
		{params.EnvRPCURL: "http://localhost:8545"},
		{params.EnvPrivateKey: "k", params.EnvRPCURL: "u", "SOLC": "0.7.0"},
	} {
		assert.Equal(t, "0.8.24", FromEnv(MapLookup(env)).CompilerVersion)
	}
}

func TestWriteJSON_Shape(t *testing.T) {
	t.Run("empty environment", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FromEnv(MapLookup(nil)).WriteJSON(&buf))

		assert.JSONEq(t,
			`{"compilerVersion":"0.8.24","networks":{"orderlyTestnet":{"url":"","accounts":[]}}}`,
			buf.String())
	})

	t.Run("url and key", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := FromEnv(MapLookup(map[string]string{
			params.EnvRPCURL:     "https://rpc.example.test",
			params.EnvPrivateKey: "0xabc123",
		}))
		require.NoError(t, cfg.WriteJSON(&buf))

		assert.JSONEq(t,
			`{"compilerVersion":"0.8.24","networks":{"orderlyTestnet":{"url":"https://rpc.example.test","accounts":["0xabc123"]}}}`,
			buf.String())
	})
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromEnv(MapLookup(map[string]string{params.EnvRPCURL: "http://127.0.0.1:8545"}))
	require.NoError(t, cfg.WriteYAML(&buf))

	var decoded Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "0.8.24", decoded.CompilerVersion)
	assert.Equal(t, "http://127.0.0.1:8545", decoded.Networks[params.NetworkName].URL)
	assert.Empty(t, decoded.Networks[params.NetworkName].Accounts)
}

// clearEnv unsets keys for the duration of the test and restores them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t, params.EnvRPCURL, params.EnvPrivateKey)

	path := filepath.Join(t.TempDir(), ".env")
	content := "L2_RPC_URL=https://rpc.example.test\nPRIVATE_KEY=0xabc123\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	n := Load(path).Default()
	assert.Equal(t, "https://rpc.example.test", n.URL)
	assert.Equal(t, []string{"0xabc123"}, n.Accounts)
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	clearEnv(t, params.EnvPrivateKey)
	t.Setenv(params.EnvRPCURL, "http://from-process:8545")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("L2_RPC_URL=http://from-file:8545\n"), 0o600))

	n := Load(path).Default()
	assert.Equal(t, "http://from-process:8545", n.URL)
	assert.Empty(t, n.Accounts)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t, params.EnvRPCURL, params.EnvPrivateKey)

	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))

	n := cfg.Default()
	assert.Equal(t, "", n.URL)
	assert.Equal(t, []string{}, n.Accounts)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "****", MaskKey("0xabc123"))
	assert.Equal(t, "0x86...87fd", MaskKey("0x8685f1623ece272cde76efa71074da44d542e8036c2fe1e535ea6d1ee47987fd"))
}

func TestNetworkConfig_StringMasksAccounts(t *testing.T) {
	key := "0x8685f1623ece272cde76efa71074da44d542e8036c2fe1e535ea6d1ee47987fd"
	n := NetworkConfig{URL: "http://x", Accounts: []string{key}}

	assert.NotContains(t, n.String(), key)
	assert.Equal(t, key, n.Accounts[0])

	acc, ok := n.Account()
	assert.True(t, ok)
	assert.Equal(t, key, acc)

	_, ok = NetworkConfig{}.Account()
	assert.False(t, ok)
}
