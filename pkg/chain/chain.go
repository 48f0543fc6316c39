// Package chain sends contract deployments and transactions to an EVM network
// and waits for them to be mined.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"amm101ctl/pkg/artifacts"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	// ErrReverted is returned when a mined transaction has a failed status.
	ErrReverted = errors.New("transaction reverted")
	// ErrNoCode is returned when a deployment is mined but left no code behind.
	ErrNoCode = errors.New("no contract code at address after deployment")
	// ErrChainIDMismatch is returned when the node serves a different chain than configured.
	ErrChainIDMismatch = errors.New("chain ID mismatch")
	// ErrReadOnly is returned when a client without a key is asked to send a transaction.
	ErrReadOnly = errors.New("client has no private key")
)

// DefaultConfirmTimeout bounds the wait for a receipt when Options leaves it unset.
const DefaultConfirmTimeout = 5 * time.Minute

// Backend is the subset of an Ethereum RPC client used here. Both
// *ethclient.Client and the simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Client defines the chain operations the deployment pipeline and status
// report depend on. Consumers should accept this interface to enable testing with mocks.
type Client interface {
	From() common.Address
	ChainID() *big.Int
	Deploy(ctx context.Context, art *artifacts.Artifact, args ...interface{}) (*Result, error)
	Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*Result, error)
	Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Result describes a mined transaction. Address is set for deployments only.
type Result struct {
	Address common.Address
	TxHash  common.Hash
	Block   uint64
	GasUsed uint64
}

// Options tunes an EVMClient.
type Options struct {
	// ExpectedChainID, when non-zero, must match the node's chain ID.
	ExpectedChainID uint64
	ConfirmTimeout  time.Duration
	GasFeeCap       *big.Int
	GasTipCap       *big.Int
	Logger          *zap.Logger
}

// EVMClient is the real Client implementation.
type EVMClient struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	opts    Options
	log     *zap.Logger
	closer  func()
}

// Compile-time check that EVMClient implements Client.
var _ Client = (*EVMClient)(nil)

// ParsePrivateKey decodes a hex private key with or without the 0x prefix.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Dial connects to rpcURL and returns a client signing with key. A nil key
// gives a read-only client.
func Dial(ctx context.Context, rpcURL string, key *ecdsa.PrivateKey, opts Options) (*EVMClient, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	c, err := New(ctx, ec, key, opts)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closer = ec.Close
	return c, nil
}

// New wraps an existing backend. It queries the chain ID once and verifies
// it against opts.ExpectedChainID.
func New(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, opts Options) (*EVMClient, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if opts.ExpectedChainID != 0 && (!chainID.IsUint64() || chainID.Uint64() != opts.ExpectedChainID) {
		return nil, fmt.Errorf("%w: expected %d, got %s", ErrChainIDMismatch, opts.ExpectedChainID, chainID)
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &EVMClient{
		backend: backend,
		key:     key,
		chainID: chainID,
		opts:    opts,
		log:     logger,
	}
	if key != nil {
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// Close releases the underlying RPC connection, if this client owns one.
func (c *EVMClient) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// From returns the deployer address, or the zero address for a read-only client.
func (c *EVMClient) From() common.Address {
	return c.from
}

// ChainID returns the chain ID reported by the node.
func (c *EVMClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Deploy sends the creation transaction for art with constructor args and
// waits until the contract code is on chain.
func (c *EVMClient) Deploy(ctx context.Context, art *artifacts.Artifact, args ...interface{}) (*Result, error) {
	args, err := FitArgs(art.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", art.Name, err)
	}
	auth, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	addr, tx, _, err := bind.DeployContract(auth, art.ABI, art.Bytecode, c.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s deployment: %w", art.Name, err)
	}
	c.log.Info("deployment sent",
		zap.String("contract", art.Name),
		zap.String("address", addr.Hex()),
		zap.String("tx", tx.Hash().Hex()))

	receipt, err := c.wait(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s deployment %s: %w", art.Name, tx.Hash().Hex(), err)
	}

	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read code at %s: %w", addr.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", art.Name, addr.Hex(), ErrNoCode)
	}

	res := resultFrom(receipt)
	res.Address = addr
	c.log.Info("deployment mined",
		zap.String("contract", art.Name),
		zap.String("address", addr.Hex()),
		zap.Uint64("block", res.Block),
		zap.Uint64("gas_used", res.GasUsed))
	return res, nil
}

// Transact calls a state-changing method and waits for the receipt.
func (c *EVMClient) Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*Result, error) {
	m, ok := contractABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %s not found in abi", method)
	}
	args, err := FitArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	auth, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	bound := bind.NewBoundContract(to, contractABI, c.backend, c.backend, c.backend)
	tx, err := bound.Transact(auth, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}
	c.log.Info("transaction sent",
		zap.String("method", method),
		zap.String("to", to.Hex()),
		zap.String("tx", tx.Hash().Hex()))

	receipt, err := c.wait(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, tx.Hash().Hex(), err)
	}
	res := resultFrom(receipt)
	c.log.Info("transaction mined",
		zap.String("method", method),
		zap.Uint64("block", res.Block),
		zap.Uint64("gas_used", res.GasUsed))
	return res, nil
}

// Call invokes a read-only method against the latest block.
func (c *EVMClient) Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	bound := bind.NewBoundContract(to, contractABI, c.backend, c.backend, c.backend)
	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	return out, nil
}

// CodeAt returns the runtime code at addr.
func (c *EVMClient) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.backend.CodeAt(ctx, addr, nil)
}

// Balance returns the native balance of addr.
func (c *EVMClient) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, addr, nil)
}

func (c *EVMClient) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrReadOnly
	}
	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	if c.opts.GasFeeCap != nil {
		auth.GasFeeCap = new(big.Int).Set(c.opts.GasFeeCap)
	}
	if c.opts.GasTipCap != nil {
		auth.GasTipCap = new(big.Int).Set(c.opts.GasTipCap)
	}
	return auth, nil
}

// wait blocks until tx is mined or the confirm timeout elapses, and fails on
// a reverted receipt.
func (c *EVMClient) wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("not mined within %s: %w", c.opts.ConfirmTimeout, err)
		}
		return nil, fmt.Errorf("waiting for receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w in block %s", ErrReverted, receipt.BlockNumber)
	}
	return receipt, nil
}

func resultFrom(r *types.Receipt) *Result {
	res := &Result{TxHash: r.TxHash, GasUsed: r.GasUsed}
	if r.BlockNumber != nil {
		res.Block = r.BlockNumber.Uint64()
	}
	return res
}
