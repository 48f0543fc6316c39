package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"amm101ctl/pkg/units"
	"amm101ctl/pkg/validate"
)

// ResolvedNetwork is a Network with defaults applied and ${VAR} references
// expanded, ready to dial.
type ResolvedNetwork struct {
	Name          string
	RPCURL        string
	ChainID       uint64
	ExplorerURL   string
	PrivateKeyEnv string
	GasFeeCap     *big.Int
	GasTipCap     *big.Int
}

// ResolveNetwork merges the built-in definition of name (if any) with the
// configured one and expands environment references. Call it after the .env
// file has been loaded.
func (c *Config) ResolveNetwork(name string) (*ResolvedNetwork, error) {
	if err := validate.Network(name); err != nil {
		return nil, err
	}

	n, builtin := DefaultNetworks[name]
	var configured Network
	var ok bool
	if c != nil {
		configured, ok = c.Networks[name]
	}
	if !builtin && !ok {
		return nil, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(c.NetworkNames(), ", "))
	}
	if ok {
		n = mergeNetwork(n, configured)
	}

	rpcURL := strings.TrimSpace(os.ExpandEnv(n.RPCURL))
	if rpcURL == "" {
		return nil, fmt.Errorf("network %s has no RPC URL (set rpc-url in %s or the referenced environment variable)", name, DefaultConfigFile)
	}
	if err := validate.RPCURL(rpcURL); err != nil {
		return nil, fmt.Errorf("network %s: %w", name, err)
	}
	if n.ChainID == 0 {
		return nil, fmt.Errorf("network %s has no chain-id", name)
	}

	res := &ResolvedNetwork{
		Name:          name,
		RPCURL:        rpcURL,
		ChainID:       n.ChainID,
		ExplorerURL:   strings.TrimRight(n.ExplorerURL, "/"),
		PrivateKeyEnv: n.PrivateKeyEnv,
	}
	if res.PrivateKeyEnv == "" {
		res.PrivateKeyEnv = DefaultPrivateKeyEnv
	}

	var err error
	if n.GasFeeCap != "" {
		if res.GasFeeCap, err = parseWei(n.GasFeeCap); err != nil {
			return nil, fmt.Errorf("network %s: gas-fee-cap: %w", name, err)
		}
	}
	if n.GasTipCap != "" {
		if res.GasTipCap, err = parseWei(n.GasTipCap); err != nil {
			return nil, fmt.Errorf("network %s: gas-tip-cap: %w", name, err)
		}
	}
	return res, nil
}

// PrivateKey reads the deployer key from the network's environment variable.
func (n *ResolvedNetwork) PrivateKey() string {
	return strings.TrimSpace(os.Getenv(n.PrivateKeyEnv))
}

// AddressURL links an address on the network's block explorer, or returns ""
// when no explorer is configured.
func (n *ResolvedNetwork) AddressURL(addr string) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/address/" + addr
}

func mergeNetwork(base, override Network) Network {
	if override.RPCURL != "" {
		base.RPCURL = override.RPCURL
	}
	if override.ChainID != 0 {
		base.ChainID = override.ChainID
	}
	if override.ExplorerURL != "" {
		base.ExplorerURL = override.ExplorerURL
	}
	if override.PrivateKeyEnv != "" {
		base.PrivateKeyEnv = override.PrivateKeyEnv
	}
	if override.GasFeeCap != "" {
		base.GasFeeCap = override.GasFeeCap
	}
	if override.GasTipCap != "" {
		base.GasTipCap = override.GasTipCap
	}
	return base
}

// parseWei accepts plain wei integers or a "<n> gwei" suffix.
func parseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	decimals := 0
	if v, ok := strings.CutSuffix(strings.ToLower(s), "gwei"); ok {
		s = strings.TrimSpace(v)
		decimals = 9
	}
	v, err := units.ParseUnits(s, decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("must not be negative")
	}
	return v, nil
}

func hasEnvRef(s string) bool {
	return strings.Contains(s, "$")
}
