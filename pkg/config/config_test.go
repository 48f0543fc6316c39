package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		ArtifactsDir:   "artifacts",
		DeploymentsDir: "deployments",
		ConfirmTimeout: 2 * time.Minute,
		Networks: map[string]Network{
			"sepolia": {RPCURL: "https://rpc.sepolia.org", ChainID: 11155111},
			"anvil":   {RPCURL: "${ANVIL_URL}", ChainID: 31337, GasFeeCap: "30 gwei", GasTipCap: "1000000000"},
		},
		PointToken: PointToken{Name: "TD-AMM-101", Symbol: "TD-AMM-101", InitialSupply: "0"},
		DummyToken: DummyToken{Name: "dummyToken", Symbol: "DTK", Supply: "2000000000", Decimals: intPtr(18)},
		Uniswap: Uniswap{
			PositionManager: DefaultPositionManager,
			StateView:       DefaultStateView,
			WETH:            DefaultWETH,
		},
		Random: Random{Count: 20, TickerLength: 5, MaxSupply: 1000},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should be valid, got error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad network name", Config{Networks: map[string]Network{"Sepolia!": {}}}},
		{"file rpc url", Config{Networks: map[string]Network{"evil": {RPCURL: "file:///etc/passwd"}}}},
		{"bare host rpc url", Config{Networks: map[string]Network{"local": {RPCURL: "127.0.0.1:8545"}}}},
		{"bad fee cap", Config{Networks: map[string]Network{"local": {GasFeeCap: "lots"}}}},
		{"negative tip cap", Config{Networks: map[string]Network{"local": {GasTipCap: "-1"}}}},
		{"bad position manager", Config{Uniswap: Uniswap{PositionManager: "0x1234"}}},
		{"bad weth", Config{Uniswap: Uniswap{WETH: "weth"}}},
		{"bad initial supply", Config{PointToken: PointToken{InitialSupply: "1.5"}}},
		{"bad dummy supply", Config{DummyToken: DummyToken{Supply: "two billion"}}},
		{"negative initial supply", Config{PointToken: PointToken{InitialSupply: "-1"}}},
		{"negative dummy supply", Config{DummyToken: DummyToken{Supply: "-1"}}},
		{"decimals out of range", Config{DummyToken: DummyToken{Decimals: intPtr(99)}}},
		{"negative timeout", Config{ConfirmTimeout: -time.Second}},
		{"negative count", Config{Random: Random{Count: -1}}},
		{"negative ticker length", Config{Random: Random{TickerLength: -5}}},
		{"negative max supply", Config{Random: Random{MaxSupply: -1}}},
		{"system artifacts dir", Config{ArtifactsDir: "/etc"}},
		{"root deployments dir", Config{DeploymentsDir: "/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestLoad_ValidatesAfterParsing(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "amm101ctl.yaml")
	content := []byte("uniswap:\n  weth: not-an-address\n")
	require.NoError(t, os.WriteFile(configPath, content, 0600))

	_, err := Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "uniswap.weth")
}

func TestLoad_MissingNonDefaultFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingDefaultFileIsOptional(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(DefaultConfigFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Same(t, cfg, Loaded)
}

func TestLoad_MalformedYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "amm101ctl.yaml")
	require.NoError(t, os.WriteFile(p, []byte("networks: [unclosed"), 0600))

	_, err := Load(p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "amm101ctl.yaml")
	content := `artifacts-dir: build/artifacts
deployments-dir: out
confirm-timeout: 90s
networks:
  sepolia:
    rpc-url: https://rpc.example.org
    private-key-env: SEPOLIA_KEY
point-token:
  name: TD-AMM-101
  symbol: TD-AMM-101
dummy-token:
  supply: "1000"
  decimals: 6
random:
  count: 3
`
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Same(t, cfg, Loaded)

	assert.Equal(t, "build/artifacts", cfg.GetArtifactsDir())
	assert.Equal(t, "out", cfg.GetDeploymentsDir())
	assert.Equal(t, 90*time.Second, cfg.GetConfirmTimeout())

	name, symbol, initial := cfg.GetPointToken()
	assert.Equal(t, "TD-AMM-101", name)
	assert.Equal(t, "TD-AMM-101", symbol)
	assert.Equal(t, int64(0), initial.Int64())

	dname, dsymbol, supply := cfg.GetDummyToken()
	assert.Equal(t, DefaultDummyName, dname)
	assert.Equal(t, DefaultDummySymbol, dsymbol)
	assert.Equal(t, "1000000000", supply.String())

	r := cfg.GetRandom()
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, DefaultTickerLength, r.TickerLength)
	assert.Equal(t, int64(DefaultMaxSupply), r.MaxSupply)
}

func TestGetters_NilConfig(t *testing.T) {
	var cfg *Config

	assert.Equal(t, DefaultArtifactsDir, cfg.GetArtifactsDir())
	assert.Equal(t, DefaultDeploymentsDir, cfg.GetDeploymentsDir())
	assert.Equal(t, DefaultConfirmTimeout, cfg.GetConfirmTimeout())

	name, symbol, initial := cfg.GetPointToken()
	assert.Equal(t, "AMM-101", name)
	assert.Equal(t, "AMM-101", symbol)
	assert.Equal(t, 0, initial.Sign())

	_, _, supply := cfg.GetDummyToken()
	assert.Equal(t, "2000000000000000000000000000", supply.String())

	u := cfg.GetUniswap()
	assert.Equal(t, DefaultPositionManager, u.PositionManager)
	assert.Equal(t, DefaultStateView, u.StateView)
	assert.Equal(t, DefaultWETH, u.WETH)

	assert.Equal(t, Random{Count: 20, TickerLength: 5, MaxSupply: 1_000_000_000}, cfg.GetRandom())
	assert.Equal(t, []string{"localhost", "sepolia"}, cfg.NetworkNames())
}

func TestGetUniswap_PartialOverride(t *testing.T) {
	weth := "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"
	cfg := &Config{Uniswap: Uniswap{WETH: weth}}

	u := cfg.GetUniswap()
	assert.Equal(t, DefaultPositionManager, u.PositionManager)
	assert.Equal(t, DefaultStateView, u.StateView)
	assert.Equal(t, weth, u.WETH)
}

func TestNetworkNames_IncludesConfigured(t *testing.T) {
	cfg := &Config{Networks: map[string]Network{"base-sepolia": {}, "sepolia": {}}}
	assert.Equal(t, []string{"base-sepolia", "localhost", "sepolia"}, cfg.NetworkNames())
}
