package status

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"amm101ctl/pkg/chain"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/format"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in abi: %v", err))
	}
	return parsed
}

type ContractStat struct {
	Name     string
	Address  string
	Status   string
	CodeSize int
	Token    *TokenStat
	Err      string
}

// TokenStat is the ERC-20 metadata read from a deployed token.
type TokenStat struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

type StepStat struct {
	Name   string
	Status string
	Tx     string
}

type DeploymentStatus struct {
	Network   string
	ChainID   string
	Deployer  string
	Balance   *big.Int
	Contracts []ContractStat
	Steps     []StepStat
	Random    *deployments.RandomValues
}

// Gather reads every recorded contract back from chain. Read failures are
// reported per contract rather than aborting the report.
func Gather(ctx context.Context, client chain.Client, rec *deployments.Record) DeploymentStatus {
	st := DeploymentStatus{
		Network:  rec.Network,
		ChainID:  client.ChainID().String(),
		Deployer: rec.Deployer,
		Random:   rec.Random,
	}

	if common.IsHexAddress(rec.Deployer) {
		if bal, err := client.Balance(ctx, common.HexToAddress(rec.Deployer)); err == nil {
			st.Balance = bal
		}
	}

	for _, name := range deployments.ContractNames {
		st.Contracts = append(st.Contracts, GatherContract(ctx, client, name, rec.Contract(name)))
	}

	st.Steps = Steps(rec)
	return st
}

// GatherContract checks code presence at the recorded address and, for the
// two tokens, reads their ERC-20 metadata.
func GatherContract(ctx context.Context, client chain.Client, name string, c *deployments.Contract) ContractStat {
	cs := ContractStat{Name: name, Address: "-", Status: format.StatusPending}
	if c == nil {
		return cs
	}
	cs.Address = c.Address

	addr := common.HexToAddress(c.Address)
	code, err := client.CodeAt(ctx, addr)
	if err != nil {
		cs.Status = format.StatusUnknown
		cs.Err = err.Error()
		return cs
	}
	cs.CodeSize = len(code)
	if len(code) == 0 {
		cs.Status = format.StatusMissing
		return cs
	}
	cs.Status = format.StatusDeployed

	if name == deployments.PointERC20 || name == deployments.DummyToken {
		tok, err := GatherToken(ctx, client, addr)
		if err != nil {
			cs.Err = err.Error()
		}
		cs.Token = tok
	}
	return cs
}

// GatherToken reads name, symbol, decimals and totalSupply from an ERC-20.
func GatherToken(ctx context.Context, client chain.Client, addr common.Address) (*TokenStat, error) {
	tok := &TokenStat{}

	out, err := client.Call(ctx, addr, erc20ABI, "name")
	if err != nil {
		return nil, err
	}
	tok.Name, _ = first[string](out)

	if out, err = client.Call(ctx, addr, erc20ABI, "symbol"); err != nil {
		return tok, err
	}
	tok.Symbol, _ = first[string](out)

	if out, err = client.Call(ctx, addr, erc20ABI, "decimals"); err != nil {
		return tok, err
	}
	tok.Decimals, _ = first[uint8](out)

	if out, err = client.Call(ctx, addr, erc20ABI, "totalSupply"); err != nil {
		return tok, err
	}
	tok.TotalSupply, _ = first[*big.Int](out)

	return tok, nil
}

func first[T any](out []interface{}) (T, bool) {
	var zero T
	if len(out) == 0 {
		return zero, false
	}
	v, ok := out[0].(T)
	return v, ok
}

// Steps reports the two configuration calls recorded in rec. It needs no
// chain access.
func Steps(rec *deployments.Record) []StepStat {
	return []StepStat{
		stepStat("setTeacher", rec.TeacherSet, rec.TeacherTx),
		stepStat("setRandomTickersAndSupply", rec.RandomSet, rec.RandomTx),
	}
}

func stepStat(name string, done bool, tx string) StepStat {
	s := StepStat{Name: name, Status: format.StatusPending, Tx: "-"}
	if done {
		s.Status = format.StatusDone
	}
	if tx != "" {
		s.Tx = tx
	}
	return s
}

// Supply renders the total supply of a token using its own decimals.
func (t *TokenStat) Supply() string {
	if t == nil || t.TotalSupply == nil {
		return "-"
	}
	return format.Tokens(t.TotalSupply, int(t.Decimals), t.Symbol)
}
