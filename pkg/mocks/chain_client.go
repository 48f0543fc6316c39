package mocks

import (
	"context"
	"math/big"

	"amm101ctl/pkg/artifacts"
	"amm101ctl/pkg/chain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

// MockChainClient is a testify mock for chain.Client.
type MockChainClient struct {
	mock.Mock
}

var _ chain.Client = (*MockChainClient)(nil)

func (m *MockChainClient) From() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

func (m *MockChainClient) ChainID() *big.Int {
	args := m.Called()
	return args.Get(0).(*big.Int)
}

func (m *MockChainClient) Deploy(ctx context.Context, art *artifacts.Artifact, ctorArgs ...interface{}) (*chain.Result, error) {
	args := m.Called(ctx, art, ctorArgs)
	res, _ := args.Get(0).(*chain.Result)
	return res, args.Error(1)
}

func (m *MockChainClient) Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, callArgs ...interface{}) (*chain.Result, error) {
	args := m.Called(ctx, to, method, callArgs)
	res, _ := args.Get(0).(*chain.Result)
	return res, args.Error(1)
}

func (m *MockChainClient) Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, callArgs ...interface{}) ([]interface{}, error) {
	args := m.Called(ctx, to, method, callArgs)
	out, _ := args.Get(0).([]interface{})
	return out, args.Error(1)
}

func (m *MockChainClient) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	args := m.Called(ctx, addr)
	code, _ := args.Get(0).([]byte)
	return code, args.Error(1)
}

func (m *MockChainClient) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	args := m.Called(ctx, addr)
	bal, _ := args.Get(0).(*big.Int)
	return bal, args.Error(1)
}

// ArtifactNamed matches an *artifacts.Artifact argument by contract name.
func ArtifactNamed(name string) interface{} {
	return mock.MatchedBy(func(a *artifacts.Artifact) bool {
		return a != nil && a.Name == name
	})
}
