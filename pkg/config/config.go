package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"

	"amm101ctl/pkg/units"
	"amm101ctl/pkg/validate"

	"gopkg.in/yaml.v3"
)

// Config represents the structure of an amm101ctl.yaml configuration file.
type Config struct {
	ArtifactsDir   string             `yaml:"artifacts-dir"`
	DeploymentsDir string             `yaml:"deployments-dir"`
	ConfirmTimeout time.Duration      `yaml:"confirm-timeout"`
	Networks       map[string]Network `yaml:"networks"`
	PointToken     PointToken         `yaml:"point-token"`
	DummyToken     DummyToken         `yaml:"dummy-token"`
	Uniswap        Uniswap            `yaml:"uniswap"`
	Random         Random             `yaml:"random"`
}

// Network describes one EVM network the contracts can be deployed to.
type Network struct {
	RPCURL        string `yaml:"rpc-url"`
	ChainID       uint64 `yaml:"chain-id"`
	ExplorerURL   string `yaml:"explorer-url"`
	PrivateKeyEnv string `yaml:"private-key-env"`
	// Optional EIP-1559 overrides in wei; empty means let the node suggest.
	GasFeeCap string `yaml:"gas-fee-cap"`
	GasTipCap string `yaml:"gas-tip-cap"`
}

// PointToken holds the PointERC20 constructor arguments.
type PointToken struct {
	Name          string `yaml:"name"`
	Symbol        string `yaml:"symbol"`
	InitialSupply string `yaml:"initial-supply"`
}

// DummyToken holds the DummyToken constructor arguments. Supply is expressed
// in whole tokens and scaled by Decimals.
type DummyToken struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Supply   string `yaml:"supply"`
	Decimals *int   `yaml:"decimals"`
}

// Uniswap holds the external addresses passed to the Evaluator.
type Uniswap struct {
	PositionManager string `yaml:"position-manager"`
	StateView       string `yaml:"state-view"`
	WETH            string `yaml:"weth"`
}

// Random controls the generated ticker and supply values.
type Random struct {
	Count        int   `yaml:"count"`
	TickerLength int   `yaml:"ticker-length"`
	MaxSupply    int64 `yaml:"max-supply"`
}

const (
	// DefaultConfigFile is the default configuration file name.
	DefaultConfigFile = "amm101ctl.yaml"
	// DefaultArtifactsDir is where Hardhat writes compiled artifacts.
	DefaultArtifactsDir = "artifacts"
	// DefaultDeploymentsDir is where deployment records are written.
	DefaultDeploymentsDir = "deployments"
	// DefaultConfirmTimeout bounds the wait for each transaction receipt.
	DefaultConfirmTimeout = 5 * time.Minute
	// DefaultNetwork is used when --network is not given.
	DefaultNetwork = "localhost"
	// DefaultPrivateKeyEnv names the environment variable holding the deployer key.
	DefaultPrivateKeyEnv = "PRIVATE_KEY"

	DefaultPointName          = "AMM-101"
	DefaultPointSymbol        = "AMM-101"
	DefaultPointInitialSupply = "0"

	DefaultDummyName     = "dummyToken"
	DefaultDummySymbol   = "DTK"
	DefaultDummySupply   = "2000000000"
	DefaultDummyDecimals = 18

	// Uniswap v4 deployments on Sepolia.
	DefaultPositionManager = "0x429ba70129df741B2Ca2a85BC3A2a3328e5c09b4"
	DefaultStateView       = "0xe1dd9c3fa50edb962e442f60dfbc432e24537e4c"
	DefaultWETH            = "0x0000000000000000000000000000000000000000"

	DefaultRandomCount  = 20
	DefaultTickerLength = 5
	DefaultMaxSupply    = 1_000_000_000
)

// DefaultNetworks are always available and may be overridden by name.
var DefaultNetworks = map[string]Network{
	"localhost": {
		RPCURL:  "http://127.0.0.1:8545",
		ChainID: 31337,
	},
	"sepolia": {
		RPCURL:      "${SEPOLIA_RPC_URL}",
		ChainID:     11155111,
		ExplorerURL: "https://sepolia.etherscan.io",
	},
}

// Loaded holds the currently loaded configuration (populated after Load).
var Loaded *Config

// Load reads and parses the config file at the given path.
// If the file does not exist and the path is the default, an empty config is returned without error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 -- config file path is intentionally user-specified via CLI flag
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigFile {
			// Default config file is optional
			Loaded = cfg
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error in %s: %w", path, err)
	}

	Loaded = cfg
	return cfg, nil
}

// Validate checks that all configured values are safe and well-formed.
// RPC URLs holding ${VAR} references are checked after expansion, when the
// network is resolved.
func (c *Config) Validate() error {
	for _, entry := range []struct {
		name, path string
	}{
		{"artifacts-dir", c.ArtifactsDir},
		{"deployments-dir", c.DeploymentsDir},
	} {
		if entry.path != "" {
			if err := validate.WorkspacePath(entry.path); err != nil {
				return fmt.Errorf("%s: %w", entry.name, err)
			}
		}
	}

	if c.ConfirmTimeout < 0 {
		return fmt.Errorf("confirm-timeout must not be negative, got %s", c.ConfirmTimeout)
	}

	for name, n := range c.Networks {
		if err := validate.Network(name); err != nil {
			return err
		}
		if n.RPCURL != "" && !hasEnvRef(n.RPCURL) {
			if err := validate.RPCURL(n.RPCURL); err != nil {
				return fmt.Errorf("network %s: %w", name, err)
			}
		}
		for _, fee := range []struct {
			name, value string
		}{
			{"gas-fee-cap", n.GasFeeCap},
			{"gas-tip-cap", n.GasTipCap},
		} {
			if fee.value == "" {
				continue
			}
			if _, err := parseWei(fee.value); err != nil {
				return fmt.Errorf("network %s: %s: %w", name, fee.name, err)
			}
		}
	}

	for _, entry := range []struct {
		name, addr string
	}{
		{"uniswap.position-manager", c.Uniswap.PositionManager},
		{"uniswap.state-view", c.Uniswap.StateView},
		{"uniswap.weth", c.Uniswap.WETH},
	} {
		if entry.addr != "" {
			if err := validate.EVMAddress(entry.addr); err != nil {
				return fmt.Errorf("%s: %w", entry.name, err)
			}
		}
	}

	if c.PointToken.InitialSupply != "" {
		v, err := units.ParseUnits(c.PointToken.InitialSupply, 0)
		if err != nil {
			return fmt.Errorf("point-token.initial-supply: %w", err)
		}
		if v.Sign() < 0 {
			return fmt.Errorf("point-token.initial-supply must not be negative, got %s", c.PointToken.InitialSupply)
		}
	}
	if d := c.DummyToken.Decimals; d != nil && (*d < 0 || *d > units.MaxDecimals) {
		return fmt.Errorf("dummy-token.decimals out of range: %d", *d)
	}
	if c.DummyToken.Supply != "" {
		v, err := units.ParseUnits(c.DummyToken.Supply, c.GetDummyDecimals())
		if err != nil {
			return fmt.Errorf("dummy-token.supply: %w", err)
		}
		if v.Sign() < 0 {
			return fmt.Errorf("dummy-token.supply must not be negative, got %s", c.DummyToken.Supply)
		}
	}

	if c.Random.Count < 0 {
		return fmt.Errorf("random.count must be positive, got %d", c.Random.Count)
	}
	if c.Random.TickerLength < 0 {
		return fmt.Errorf("random.ticker-length must be positive, got %d", c.Random.TickerLength)
	}
	if c.Random.MaxSupply < 0 {
		return fmt.Errorf("random.max-supply must be positive, got %d", c.Random.MaxSupply)
	}

	return nil
}

// GetArtifactsDir returns the configured artifacts directory, falling back to default.
func (c *Config) GetArtifactsDir() string {
	if c != nil && c.ArtifactsDir != "" {
		return c.ArtifactsDir
	}
	return DefaultArtifactsDir
}

// GetDeploymentsDir returns the configured deployments directory, falling back to default.
func (c *Config) GetDeploymentsDir() string {
	if c != nil && c.DeploymentsDir != "" {
		return c.DeploymentsDir
	}
	return DefaultDeploymentsDir
}

// GetConfirmTimeout returns the per-transaction confirmation timeout.
func (c *Config) GetConfirmTimeout() time.Duration {
	if c != nil && c.ConfirmTimeout > 0 {
		return c.ConfirmTimeout
	}
	return DefaultConfirmTimeout
}

// NetworkNames lists built-in and configured networks, sorted.
func (c *Config) NetworkNames() []string {
	seen := map[string]bool{}
	for name := range DefaultNetworks {
		seen[name] = true
	}
	if c != nil {
		for name := range c.Networks {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPointToken returns the PointERC20 constructor arguments.
func (c *Config) GetPointToken() (name, symbol string, initialSupply *big.Int) {
	name, symbol, supply := DefaultPointName, DefaultPointSymbol, DefaultPointInitialSupply
	if c != nil {
		if c.PointToken.Name != "" {
			name = c.PointToken.Name
		}
		if c.PointToken.Symbol != "" {
			symbol = c.PointToken.Symbol
		}
		if c.PointToken.InitialSupply != "" {
			supply = c.PointToken.InitialSupply
		}
	}
	v, err := units.ParseUnits(supply, 0)
	if err != nil {
		v = new(big.Int)
	}
	return name, symbol, v
}

// GetDummyDecimals returns the DummyToken decimals, falling back to 18.
func (c *Config) GetDummyDecimals() int {
	if c != nil && c.DummyToken.Decimals != nil {
		return *c.DummyToken.Decimals
	}
	return DefaultDummyDecimals
}

// GetDummyToken returns the DummyToken constructor arguments, with the supply
// already scaled to base units.
func (c *Config) GetDummyToken() (name, symbol string, supply *big.Int) {
	name, symbol, whole := DefaultDummyName, DefaultDummySymbol, DefaultDummySupply
	if c != nil {
		if c.DummyToken.Name != "" {
			name = c.DummyToken.Name
		}
		if c.DummyToken.Symbol != "" {
			symbol = c.DummyToken.Symbol
		}
		if c.DummyToken.Supply != "" {
			whole = c.DummyToken.Supply
		}
	}
	v, err := units.ParseUnits(whole, c.GetDummyDecimals())
	if err != nil {
		v = new(big.Int)
	}
	return name, symbol, v
}

// GetUniswap returns the Uniswap addresses, each falling back to its default.
func (c *Config) GetUniswap() Uniswap {
	u := Uniswap{
		PositionManager: DefaultPositionManager,
		StateView:       DefaultStateView,
		WETH:            DefaultWETH,
	}
	if c == nil {
		return u
	}
	if c.Uniswap.PositionManager != "" {
		u.PositionManager = c.Uniswap.PositionManager
	}
	if c.Uniswap.StateView != "" {
		u.StateView = c.Uniswap.StateView
	}
	if c.Uniswap.WETH != "" {
		u.WETH = c.Uniswap.WETH
	}
	return u
}

// GetRandom returns the random value parameters with defaults applied.
func (c *Config) GetRandom() Random {
	r := Random{
		Count:        DefaultRandomCount,
		TickerLength: DefaultTickerLength,
		MaxSupply:    DefaultMaxSupply,
	}
	if c == nil {
		return r
	}
	if c.Random.Count > 0 {
		r.Count = c.Random.Count
	}
	if c.Random.TickerLength > 0 {
		r.TickerLength = c.Random.TickerLength
	}
	if c.Random.MaxSupply > 0 {
		r.MaxSupply = c.Random.MaxSupply
	}
	return r
}
