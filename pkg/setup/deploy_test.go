package setup

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"amm101ctl/pkg/artifacts"
	"amm101ctl/pkg/chain"
	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/mocks"
	"amm101ctl/pkg/tickers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	fixtures = filepath.Join("..", "artifacts", "testdata")

	deployerAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pointAddr     = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	dummyAddr     = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	evaluatorAddr = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func loadTestContracts(t *testing.T) *Contracts {
	t.Helper()
	c, err := LoadContracts(fixtures)
	require.NoError(t, err)
	return c
}

func txHash(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

func newMockClient() *mocks.MockChainClient {
	client := new(mocks.MockChainClient)
	client.On("ChainID").Return(big.NewInt(31337))
	client.On("From").Return(deployerAddr)
	return client
}

func expectDeploys(client *mocks.MockChainClient) {
	client.On("Deploy", mock.Anything, mocks.ArtifactNamed(deployments.PointERC20), mock.Anything).
		Return(&chain.Result{Address: pointAddr, TxHash: txHash(1), Block: 1}, nil).Once()
	client.On("Deploy", mock.Anything, mocks.ArtifactNamed(deployments.DummyToken), mock.Anything).
		Return(&chain.Result{Address: dummyAddr, TxHash: txHash(2), Block: 2}, nil).Once()
	client.On("Deploy", mock.Anything, mocks.ArtifactNamed(deployments.Evaluator), mock.MatchedBy(func(args []interface{}) bool {
		return len(args) == 5 && args[0] == pointAddr && args[1] == dummyAddr
	})).Return(&chain.Result{Address: evaluatorAddr, TxHash: txHash(3), Block: 3}, nil).Once()
}

func randomArgs(count int) interface{} {
	return mock.MatchedBy(func(args []interface{}) bool {
		if len(args) != 2 {
			return false
		}
		supplies, ok1 := args[0].([]*big.Int)
		names, ok2 := args[1].([]string)
		return ok1 && ok2 && len(supplies) == count && len(names) == count
	})
}

func TestLoadContracts(t *testing.T) {
	c := loadTestContracts(t)
	assert.Equal(t, deployments.PointERC20, c.PointToken.Name)
	assert.Equal(t, deployments.DummyToken, c.DummyToken.Name)
	assert.Equal(t, deployments.Evaluator, c.Evaluator.Name)
}

func TestLoadContracts_Missing(t *testing.T) {
	_, err := LoadContracts(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, artifacts.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to load PointERC20")
}

func TestContractsCheck(t *testing.T) {
	c := loadTestContracts(t)
	assert.NoError(t, c.Check(20))

	err := c.Check(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 20 values")

	swapped := &Contracts{PointToken: c.Evaluator, DummyToken: c.DummyToken, Evaluator: c.Evaluator}
	err = swapped.Check(20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constructor takes 5 arguments, expected 3")

	noTeacher := &Contracts{PointToken: c.DummyToken, DummyToken: c.DummyToken, Evaluator: c.Evaluator}
	err = noTeacher.Check(20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no setTeacher method")

	assert.Error(t, (&Contracts{}).Check(20))
}

func TestDeployAMM101_FreshRun(t *testing.T) {
	client := newMockClient()
	expectDeploys(client)
	client.On("Transact", mock.Anything, pointAddr, MethodSetTeacher, []interface{}{evaluatorAddr, true}).
		Return(&chain.Result{TxHash: txHash(4)}, nil).Once()
	client.On("Transact", mock.Anything, evaluatorAddr, MethodSetRandom, randomArgs(20)).
		Return(&chain.Result{TxHash: txHash(5)}, nil).Once()

	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(nil)

	plan := PlanFromConfig(nil, "localhost", 42)
	rec, err := DeployAMM101(context.Background(), client, loadTestContracts(t), plan, nil, store)
	require.NoError(t, err)
	client.AssertExpectations(t)

	assert.True(t, rec.Complete())
	assert.Equal(t, "localhost", rec.Network)
	assert.Equal(t, uint64(31337), rec.ChainID)
	assert.Equal(t, deployerAddr.Hex(), rec.Deployer)

	assert.Equal(t, pointAddr.Hex(), rec.PointToken.Address)
	assert.Equal(t, []string{"AMM-101", "AMM-101", "0"}, rec.PointToken.Args)
	assert.Equal(t, []string{"dummyToken", "DTK", "2000000000000000000000000000"}, rec.DummyToken.Args)
	assert.Equal(t, []string{
		pointAddr.Hex(), dummyAddr.Hex(),
		common.HexToAddress(config.DefaultPositionManager).Hex(),
		common.HexToAddress(config.DefaultStateView).Hex(),
		common.HexToAddress(config.DefaultWETH).Hex(),
	}, rec.Evaluator.Args)
	assert.Equal(t, txHash(4).Hex(), rec.TeacherTx)
	assert.Equal(t, txHash(5).Hex(), rec.RandomTx)

	want, err := tickers.GenerateSeeded(42, 20, 5, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), rec.Random.Seed)
	assert.Equal(t, want.Tickers, rec.Random.Tickers)
	assert.Equal(t, want.SupplyStrings(), rec.Random.Supplies)

	// 3 deployments, teacher, generated values, random set
	require.Len(t, store.saved, 6)
	assert.NotNil(t, store.saved[0].PointToken)
	assert.Nil(t, store.saved[0].DummyToken)
	assert.True(t, store.saved[5].RandomSet)
}

func TestDeployAMM101_DeploysInDependencyOrder(t *testing.T) {
	client := newMockClient()
	expectDeploys(client)
	client.On("Transact", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&chain.Result{TxHash: txHash(9)}, nil)
	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(nil)

	_, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 1), nil, store)
	require.NoError(t, err)

	var order []string
	for _, call := range client.Calls {
		switch call.Method {
		case "Deploy":
			order = append(order, call.Arguments.Get(1).(*artifacts.Artifact).Name)
		case "Transact":
			order = append(order, call.Arguments.String(2))
		}
	}
	assert.Equal(t, []string{
		deployments.PointERC20, deployments.DummyToken, deployments.Evaluator,
		MethodSetTeacher, MethodSetRandom,
	}, order)
}

func TestDeployAMM101_StopsAtFirstFailure(t *testing.T) {
	client := newMockClient()
	client.On("Deploy", mock.Anything, mocks.ArtifactNamed(deployments.PointERC20), mock.Anything).
		Return(&chain.Result{Address: pointAddr, TxHash: txHash(1)}, nil)
	client.On("Deploy", mock.Anything, mocks.ArtifactNamed(deployments.DummyToken), mock.Anything).
		Return(nil, chain.ErrReverted)

	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(nil)

	rec, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 1), nil, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrReverted)
	assert.Contains(t, err.Error(), "failed to deploy DummyToken")

	require.NotNil(t, rec)
	assert.NotNil(t, rec.PointToken)
	assert.Nil(t, rec.DummyToken)
	assert.False(t, rec.Complete())
	client.AssertNotCalled(t, "Deploy", mock.Anything, mocks.ArtifactNamed(deployments.Evaluator), mock.Anything)
	client.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, store.saved, 1)
}

func TestDeployAMM101_SetTeacherFails(t *testing.T) {
	client := newMockClient()
	expectDeploys(client)
	client.On("Transact", mock.Anything, pointAddr, MethodSetTeacher, mock.Anything).
		Return(nil, assert.AnError)
	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(nil)

	rec, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 1), nil, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set teacher")
	assert.NotNil(t, rec.Evaluator)
	assert.False(t, rec.TeacherSet)
	assert.Nil(t, rec.Random, "values are generated after the teacher is set")
}

func TestDeployAMM101_SaveFails(t *testing.T) {
	client := newMockClient()
	expectDeploys(client)
	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(assert.AnError)

	_, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 1), nil, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save deployment record")
}

func TestDeployAMM101_InvalidArtifactsSpendNothing(t *testing.T) {
	client := newMockClient()
	store := new(mockSaver)

	plan := PlanFromConfig(nil, "localhost", 1)
	plan.Random.Count = 10

	_, err := DeployAMM101(context.Background(), client, loadTestContracts(t), plan, nil, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to validate artifacts")
	client.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Save", mock.Anything)
}

func partialRecord() *deployments.Record {
	rec := deployments.NewRecord("localhost", 31337, deployerAddr.Hex())
	rec.PointToken = &deployments.Contract{Name: deployments.PointERC20, Address: pointAddr.Hex()}
	rec.DummyToken = &deployments.Contract{Name: deployments.DummyToken, Address: dummyAddr.Hex()}
	rec.Evaluator = &deployments.Contract{Name: deployments.Evaluator, Address: evaluatorAddr.Hex()}
	rec.TeacherSet = true
	values, _ := tickers.GenerateSeeded(7, 20, 5, 1000)
	rec.Random = &deployments.RandomValues{Seed: 7, Supplies: values.SupplyStrings(), Tickers: values.Tickers}
	return rec
}

func TestDeployAMM101_ResumeSkipsCompletedSteps(t *testing.T) {
	client := newMockClient()
	client.On("CodeAt", mock.Anything, mock.Anything).Return([]byte{0x60}, nil)
	rec := partialRecord()
	recorded := rec.Random.Tickers
	client.On("Transact", mock.Anything, evaluatorAddr, MethodSetRandom, mock.MatchedBy(func(args []interface{}) bool {
		names, ok := args[1].([]string)
		return ok && assert.ObjectsAreEqual(recorded, names)
	})).Return(&chain.Result{TxHash: txHash(5)}, nil).Once()

	store := new(mockSaver)
	store.On("Save", mock.Anything).Return(nil)

	got, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 99), rec, store)
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.Equal(t, uint64(7), got.Random.Seed, "recorded values are reused")

	client.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Transact", mock.Anything, pointAddr, MethodSetTeacher, mock.Anything)
	client.AssertNumberOfCalls(t, "CodeAt", 3)
	assert.Len(t, store.saved, 1)
}

func TestDeployAMM101_ResumeRejectsMismatches(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*deployments.Record)
		network string
		wantErr string
	}{
		{"other network", func(*deployments.Record) {}, "sepolia", "is for network localhost"},
		{"other chain", func(r *deployments.Record) { r.ChainID = 1 }, "localhost", "chain ID mismatch"},
		{"other deployer", func(r *deployments.Record) { r.Deployer = dummyAddr.Hex() }, "localhost", "created by"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockClient()
			rec := partialRecord()
			tt.mutate(rec)

			_, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, tt.network, 1), rec, new(mockSaver))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			client.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDeployAMM101_ResumeAfterChainReset(t *testing.T) {
	client := newMockClient()
	client.On("CodeAt", mock.Anything, mock.Anything).Return([]byte{}, nil)

	_, err := DeployAMM101(context.Background(), client, loadTestContracts(t), PlanFromConfig(nil, "localhost", 1), partialRecord(), new(mockSaver))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no code")
}

func TestArgStrings(t *testing.T) {
	got := ArgStrings([]interface{}{"AMM-101", big.NewInt(12), pointAddr, true})
	assert.Equal(t, []string{"AMM-101", "12", pointAddr.Hex(), "true"}, got)
}

func TestParseSupplies(t *testing.T) {
	got, err := parseSupplies([]string{"1", "999999999"})
	require.NoError(t, err)
	assert.Equal(t, int64(999999999), got[1].Int64())

	_, err = parseSupplies([]string{"1e9"})
	assert.Error(t, err)
}
