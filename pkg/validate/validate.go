// Package validate provides reusable input validation functions for CLI arguments
// and configuration values. All validators return an error describing the violation
// or nil if the input is acceptable.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// evmAddressRe matches a 20-byte hex address with the 0x prefix.
var evmAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// privateKeyRe matches a raw secp256k1 private key, with or without 0x.
var privateKeyRe = regexp.MustCompile(`^(0x)?[a-fA-F0-9]{64}$`)

// networkRe matches network names usable as file names and CLI arguments.
var networkRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// contractNameRe matches Solidity contract identifiers.
var contractNameRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// EVMAddress validates that s is a 0x-prefixed 20-byte hex address.
func EVMAddress(s string) error {
	if !evmAddressRe.MatchString(s) {
		return fmt.Errorf("invalid address %q: must be 0x followed by 40 hex characters", s)
	}
	return nil
}

// PrivateKey validates the shape of a hex-encoded private key without echoing it.
func PrivateKey(s string) error {
	if !privateKeyRe.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("invalid private key: must be 64 hex characters (optionally 0x-prefixed)")
	}
	return nil
}

// Network validates that s is a usable network name.
func Network(s string) error {
	if !networkRe.MatchString(s) {
		return fmt.Errorf("invalid network %q: use lowercase letters, digits, hyphens and underscores", s)
	}
	return nil
}

// ContractName validates a Solidity contract identifier, which is also used
// to build artifact paths.
func ContractName(s string) error {
	if !contractNameRe.MatchString(s) {
		return fmt.Errorf("invalid contract name %q", s)
	}
	return nil
}

// RPCURL validates the scheme of an RPC endpoint.
func RPCURL(s string) error {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, scheme) && len(s) > len(scheme) {
			return nil
		}
	}
	return fmt.Errorf("invalid RPC URL %q: must use http(s):// or ws(s)://", s)
}

// WorkspacePath validates a directory the tool reads from or writes to. It
// allows absolute and relative paths but rejects obviously dangerous patterns.
func WorkspacePath(s string) error {
	if s == "" {
		return fmt.Errorf("path must not be empty")
	}

	cleaned := filepath.Clean(s)

	// Reject null bytes (path injection)
	if strings.ContainsRune(cleaned, 0) {
		return fmt.Errorf("path contains null bytes")
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return fmt.Errorf("cannot resolve path: %w", err)
	}

	systemDirs := []string{"/", "/etc", "/usr", "/bin", "/sbin", "/var", "/boot", "/dev", "/proc", "/sys"}
	for _, d := range systemDirs {
		if abs == d {
			return fmt.Errorf("path must not be a system directory: %s", abs)
		}
	}

	return nil
}
