package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Siasom1/orderly-counter/config"
	"github.com/Siasom1/orderly-counter/counter"
	"github.com/Siasom1/orderly-counter/node"
	"github.com/Siasom1/orderly-counter/wallet"
)

const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// clearEnv unsets every variable the CLI reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"L2_RPC_URL", "PRIVATE_KEY", "CONTRACT_ADDR",
		"COUNTER_CONTRACT", "COUNTER_TXS", "COUNTER_SETTLE", "COUNTER_PASSPHRASE",
		"COUNTER_KEYFILE", "COUNTER_LOG_LEVEL", "COUNTER_GAS_LIMIT", "COUNTER_FEE_MULTIPLIER",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// execute runs a fresh command tree. The env file never exists so a stray
// .env in the package directory cannot leak in.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "counterctl version "+Version)
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, want := range []string{"counterctl", "config", "run", "wallet", "COUNTER_TXS", "CONTRACT_ADDR", "--env-file"} {
		assert.Contains(t, out, want)
	}
}

func TestConfigShow(t *testing.T) {
	clearEnv(t)
	t.Setenv("L2_RPC_URL", "https://rpc.example.test")
	t.Setenv("PRIVATE_KEY", devKey)

	tests := []struct {
		name    string
		args    []string
		decode  func([]byte, interface{}) error
		account string
	}{
		{"json masked", []string{"config", "show"}, json.Unmarshal, config.MaskKey(devKey)},
		{"yaml masked", []string{"config", "show", "--yaml"}, yaml.Unmarshal, config.MaskKey(devKey)},
		{"json revealed", []string{"config", "show", "--reveal"}, json.Unmarshal, devKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)

			var cfg config.Config
			require.NoError(t, tt.decode([]byte(out), &cfg))
			assert.Equal(t, "0.8.24", cfg.CompilerVersion)

			n, ok := cfg.Network("orderlyTestnet")
			require.True(t, ok)
			assert.Equal(t, "https://rpc.example.test", n.URL)
			assert.Equal(t, []string{tt.account}, n.Accounts)
		})
	}
}

func TestConfigShow_Unset(t *testing.T) {
	clearEnv(t)

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.JSONEq(t, `{"compilerVersion":"0.8.24","networks":{"orderlyTestnet":{"url":"","accounts":[]}}}`, out)
}

func TestWalletSealOpen(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "key.json")

	out, _, err := execute(t, "wallet", "seal", file, "--key", devKey, "--light", "--passphrase", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, devAddress)

	out, _, err = execute(t, "wallet", "open", file, "--passphrase", "pw", "--show-key")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, devAddress, lines[0])
	assert.Equal(t, devKey, lines[1])

	_, _, err = execute(t, "wallet", "open", file, "--passphrase", "wrong")
	assert.ErrorIs(t, err, wallet.ErrDecrypt)
}

func TestWalletSeal_NeedsPassphrase(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "wallet", "seal", filepath.Join(t.TempDir(), "key.json"), "--key", devKey)
	assert.ErrorIs(t, err, errNoPassphrase)
}

func TestRun_MissingSettings(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "run")
	assert.ErrorIs(t, err, counter.ErrNoContract)

	t.Setenv("CONTRACT_ADDR", node.DefaultContract.Hex())
	_, _, err = execute(t, "run")
	assert.ErrorIs(t, err, counter.ErrNoRPCURL)

	t.Setenv("L2_RPC_URL", "http://127.0.0.1:1")
	_, _, err = execute(t, "run")
	assert.ErrorIs(t, err, counter.ErrNoAccount)
}

func startNode(t *testing.T) *node.Node {
	t.Helper()
	cfg := node.DefaultConfig()
	cfg.InMemory = true
	cfg.RPCPort = 0
	cfg.LogLevel = "error"
	cfg.BlockTime = time.Second

	n := node.NewNode(cfg)
	require.NoError(t, n.Start())
	t.Cleanup(n.Stop)
	return n
}

func TestRun(t *testing.T) {
	clearEnv(t)
	n := startNode(t)

	t.Setenv("L2_RPC_URL", n.URL())
	t.Setenv("PRIVATE_KEY", devKey)
	t.Setenv("CONTRACT_ADDR", node.DefaultContract.Hex())
	t.Setenv("COUNTER_SETTLE", "0s")

	out, logs, err := execute(t, "run", "--txs", "3", "--log-level", "warn")
	require.NoError(t, err)
	assert.NotContains(t, logs, "tx sent")

	var report counter.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, "3", report.Delta().String())
}

func TestRun_KeyFile(t *testing.T) {
	clearEnv(t)
	n := startNode(t)

	file := filepath.Join(t.TempDir(), "key.json")
	_, _, err := execute(t, "wallet", "seal", file, "--key", devKey, "--light", "--passphrase", "pw")
	require.NoError(t, err)

	t.Setenv("L2_RPC_URL", n.URL())
	t.Setenv("COUNTER_PASSPHRASE", "pw")

	out, _, err := execute(t, "run", "--txs", "2", "--settle", "0s", "--keyfile", file, "--contract", node.DefaultContract.Hex())
	require.NoError(t, err)

	var report counter.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, devAddress, report.Sender.Hex())
	assert.Equal(t, "2", report.Delta().String())
}
