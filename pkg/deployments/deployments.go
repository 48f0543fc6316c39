// Package deployments persists what was deployed to each network so that a
// failed run can resume and later commands can read the addresses back.
package deployments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"amm101ctl/pkg/validate"
)

// ErrNotFound is returned when no record exists for a network.
var ErrNotFound = errors.New("deployment record not found")

// Contract names, in deployment order.
const (
	PointERC20 = "PointERC20"
	DummyToken = "DummyToken"
	Evaluator  = "Evaluator"
)

// ContractNames lists the deployed contracts in dependency order.
var ContractNames = []string{PointERC20, DummyToken, Evaluator}

// Contract is one deployed contract.
type Contract struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TxHash  string `json:"txHash"`
	Block   uint64 `json:"block"`
	// Args are the constructor arguments as passed, rendered as strings.
	Args []string `json:"args"`
}

// RandomValues are the tickers and supplies handed to the Evaluator.
type RandomValues struct {
	Seed     uint64   `json:"seed"`
	Supplies []string `json:"supplies"`
	Tickers  []string `json:"tickers"`
}

// Record is the deployment state for one network.
type Record struct {
	Network  string `json:"network"`
	ChainID  uint64 `json:"chainId"`
	Deployer string `json:"deployer"`

	PointToken *Contract `json:"pointToken,omitempty"`
	DummyToken *Contract `json:"dummyToken,omitempty"`
	Evaluator  *Contract `json:"evaluator,omitempty"`

	TeacherSet bool   `json:"teacherSet"`
	TeacherTx  string `json:"teacherTx,omitempty"`

	Random    *RandomValues `json:"random,omitempty"`
	RandomSet bool          `json:"randomSet"`
	RandomTx  string        `json:"randomTx,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewRecord starts an empty record.
func NewRecord(network string, chainID uint64, deployer string) *Record {
	now := time.Now().UTC()
	return &Record{
		Network:   network,
		ChainID:   chainID,
		Deployer:  deployer,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Contract returns the deployed contract with the given name, or nil.
func (r *Record) Contract(name string) *Contract {
	switch name {
	case PointERC20:
		return r.PointToken
	case DummyToken:
		return r.DummyToken
	case Evaluator:
		return r.Evaluator
	}
	return nil
}

// SetContract stores c under its name.
func (r *Record) SetContract(c *Contract) error {
	switch c.Name {
	case PointERC20:
		r.PointToken = c
	case DummyToken:
		r.DummyToken = c
	case Evaluator:
		r.Evaluator = c
	default:
		return fmt.Errorf("unknown contract %q", c.Name)
	}
	return nil
}

// Contracts returns the deployed contracts in dependency order, skipping
// those not yet deployed.
func (r *Record) Contracts() []*Contract {
	var out []*Contract
	for _, name := range ContractNames {
		if c := r.Contract(name); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Complete reports whether every step has been recorded.
func (r *Record) Complete() bool {
	return r.PointToken != nil && r.DummyToken != nil && r.Evaluator != nil &&
		r.TeacherSet && r.RandomSet
}

// Store reads and writes records under a directory, one file per network.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the record file for a network.
func (s *Store) Path(network string) string {
	return filepath.Join(s.Dir, network+".json")
}

// Exists reports whether a record file exists for network.
func (s *Store) Exists(network string) bool {
	if validate.Network(network) != nil {
		return false
	}
	_, err := os.Stat(s.Path(network))
	return err == nil
}

// Load reads the record for network.
func (s *Store) Load(network string) (*Record, error) {
	if err := validate.Network(network); err != nil {
		return nil, err
	}
	p := s.Path(network)
	data, err := os.ReadFile(p) // #nosec G304 -- network name is validated
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for network %s (%s)", ErrNotFound, network, p)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p, err)
	}
	if rec.Network != network {
		return nil, fmt.Errorf("%s holds a record for network %q, expected %q", p, rec.Network, network)
	}
	return &rec, nil
}

// Save writes rec atomically: a temp file in the same directory is renamed
// over the previous record.
func (s *Store) Save(rec *Record) error {
	if err := validate.Network(rec.Network); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	if rec.Complete() && rec.CompletedAt == nil {
		done := rec.UpdatedAt
		rec.CompletedAt = &done
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deployment record: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Dir, err)
	}
	tmp, err := os.CreateTemp(s.Dir, rec.Network+".json.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write deployment record: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path(rec.Network)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace deployment record: %w", err)
	}
	return nil
}
