// Package artifacts loads compiled contract artifacts produced by Hardhat.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"amm101ctl/pkg/validate"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when no artifact file exists for a contract.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a compiled contract ready to deploy.
type Artifact struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte
}

// hardhatArtifact mirrors the fields of a Hardhat artifact JSON file that
// deployment needs.
type hardhatArtifact struct {
	Format         string                     `json:"_format"`
	ContractName   string                     `json:"contractName"`
	SourceName     string                     `json:"sourceName"`
	ABI            json.RawMessage            `json:"abi"`
	Bytecode       string                     `json:"bytecode"`
	LinkReferences map[string]json.RawMessage `json:"linkReferences"`
}

// Paths returns the candidate artifact locations for a contract, in lookup
// order: the Hardhat layout first, then a flat file.
func Paths(dir, name string) []string {
	return []string{
		filepath.Join(dir, "contracts", name+".sol", name+".json"),
		filepath.Join(dir, name+".json"),
	}
}

// Find returns the first existing artifact path for a contract.
func Find(dir, name string) (string, error) {
	if err := validate.ContractName(name); err != nil {
		return "", err
	}
	for _, p := range Paths(dir, name) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (looked in %s)", ErrNotFound, name, strings.Join(Paths(dir, name), ", "))
}

// Load finds and parses the artifact for a contract.
func Load(dir, name string) (*Artifact, error) {
	p, err := Find(dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- path is built from a validated contract name
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", p, err)
	}
	art, err := Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", p, err)
	}
	art.Path = p
	return art, nil
}

// Parse decodes Hardhat artifact JSON.
func Parse(name string, data []byte) (*Artifact, error) {
	var raw hardhatArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed artifact JSON: %w", err)
	}
	if raw.ContractName != "" && raw.ContractName != name {
		return nil, fmt.Errorf("artifact is for contract %s, expected %s", raw.ContractName, name)
	}
	if len(raw.LinkReferences) > 0 {
		return nil, fmt.Errorf("bytecode has unlinked library references; link libraries before deploying")
	}
	if len(bytes.TrimSpace(raw.ABI)) == 0 {
		return nil, fmt.Errorf("artifact has no abi")
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi: %w", err)
	}

	code := strings.TrimSpace(raw.Bytecode)
	if code == "" || code == "0x" {
		return nil, fmt.Errorf("artifact has empty bytecode (abstract contract or interface?)")
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}

	return &Artifact{
		Name:     name,
		ABI:      parsed,
		Bytecode: bytecode,
	}, nil
}

// HasMethod reports whether the contract ABI declares the named method.
func (a *Artifact) HasMethod(name string) bool {
	_, ok := a.ABI.Methods[name]
	return ok
}

// ConstructorArity returns the number of constructor inputs.
func (a *Artifact) ConstructorArity() int {
	return len(a.ABI.Constructor.Inputs)
}
