// Package config assembles the toolchain configuration record from the
// process environment, optionally seeded from a local .env file.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Siasom1/orderly-counter/params"
)

// LookupFunc reports the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// NetworkConfig is one named network entry.
type NetworkConfig struct {
	URL      string   `json:"url" yaml:"url"`
	Accounts []string `json:"accounts" yaml:"accounts"`
}

// Config is the record handed to the consumer of the configuration.
type Config struct {
	CompilerVersion string                   `json:"compilerVersion" yaml:"compilerVersion"`
	Networks        map[string]NetworkConfig `json:"networks" yaml:"networks"`
}

// Load reads the given env files (".env" when none are given) into the
// process environment and builds the record from it. Missing files are
// ignored and variables already set in the process are never overridden.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the record from lookup. Values are taken verbatim.
func FromEnv(lookup LookupFunc) *Config {
	url, _ := lookup(params.EnvRPCURL)

	accounts := []string{}
	if key, ok := lookup(params.EnvPrivateKey); ok {
		accounts = []string{key}
	}

	return &Config{
		CompilerVersion: params.CompilerVersion,
		Networks: map[string]NetworkConfig{
			params.NetworkName: {
				URL:      url,
				Accounts: accounts,
			},
		},
	}
}

// MapLookup adapts a plain map to a LookupFunc.
func MapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// Network returns the entry registered under name.
func (c *Config) Network(name string) (NetworkConfig, bool) {
	n, ok := c.Networks[name]
	return n, ok
}

// Default returns the single registered network entry.
func (c *Config) Default() NetworkConfig {
	return c.Networks[params.NetworkName]
}

// WriteJSON renders the record as indented JSON.
func (c *Config) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// WriteYAML renders the record as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Account returns the configured credential, if any.
func (n NetworkConfig) Account() (string, bool) {
	if len(n.Accounts) == 0 {
		return "", false
	}
	return n.Accounts[0], true
}

// Masked returns a copy whose credentials are safe to print.
func (n NetworkConfig) Masked() NetworkConfig {
	masked := make([]string, len(n.Accounts))
	for i, a := range n.Accounts {
		masked[i] = MaskKey(a)
	}
	return NetworkConfig{URL: n.URL, Accounts: masked}
}

func (n NetworkConfig) String() string {
	m := n.Masked()
	return fmt.Sprintf("url=%q accounts=%v", m.URL, m.Accounts)
}

// Masked returns a copy of the record with every credential masked.
func (c *Config) Masked() *Config {
	out := &Config{
		CompilerVersion: c.CompilerVersion,
		Networks:        make(map[string]NetworkConfig, len(c.Networks)),
	}
	for name, n := range c.Networks {
		out.Networks[name] = n.Masked()
	}
	return out
}

// MaskKey keeps the first and last four characters of a credential.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 10 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
