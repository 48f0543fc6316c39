package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"amm101ctl/pkg/chain"
	"amm101ctl/pkg/config"
	"amm101ctl/pkg/env"
	"amm101ctl/pkg/validate"

	"go.uber.org/zap"
)

var privateKeyEnv string

// resolveNetwork resolves --network against the loaded config, honouring a
// --private-key-env override.
func resolveNetwork() (*config.ResolvedNetwork, error) {
	n, err := config.Loaded.ResolveNetwork(networkName)
	if err != nil {
		return nil, err
	}
	if privateKeyEnv != "" {
		n.PrivateKeyEnv = privateKeyEnv
	}
	return n, nil
}

// loadKey reads and parses the deployer key for n. The key value never
// appears in errors.
func loadKey(n *config.ResolvedNetwork) (*ecdsa.PrivateKey, error) {
	raw := n.PrivateKey()
	if raw == "" {
		return nil, fmt.Errorf("%s is not set (export it or add it to %s)", n.PrivateKeyEnv, envFile)
	}
	if err := validate.PrivateKey(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", n.PrivateKeyEnv, err)
	}
	return chain.ParsePrivateKey(raw)
}

// dialNetwork connects to n. A nil key gives a read-only client.
func dialNetwork(ctx context.Context, n *config.ResolvedNetwork, key *ecdsa.PrivateKey) (*chain.EVMClient, error) {
	logger.Debug("dialing network",
		zap.String("network", n.Name),
		zap.Uint64("chain_id", n.ChainID))

	c, err := chain.Dial(ctx, n.RPCURL, key, chain.Options{
		ExpectedChainID: n.ChainID,
		ConfirmTimeout:  config.Loaded.GetConfirmTimeout(),
		GasFeeCap:       n.GasFeeCap,
		GasTipCap:       n.GasTipCap,
		Logger:          logger.With(zap.String("network", n.Name)),
	})
	if err != nil {
		if hint := nodeHint(n.RPCURL); hint != "" {
			return nil, fmt.Errorf("%w\n%s", err, hint)
		}
		return nil, err
	}
	return c, nil
}

// nodeHint suggests starting a local node when a loopback RPC endpoint has
// nothing listening.
func nodeHint(rpcURL string) string {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return ""
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		port = 80
		if u.Scheme == "https" || u.Scheme == "wss" {
			port = 443
		}
	}
	if env.IsPortInUse(host, port) {
		return ""
	}
	return fmt.Sprintf("Nothing is listening on %s:%d. Start a local node with `npx hardhat node` and try again.", host, port)
}
