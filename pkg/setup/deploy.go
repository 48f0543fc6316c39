package setup

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"amm101ctl/pkg/artifacts"
	"amm101ctl/pkg/chain"
	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/tickers"
	"amm101ctl/pkg/ui"

	"github.com/ethereum/go-ethereum/common"
)

// Plan is everything DeployAMM101 needs besides the chain connection.
type Plan struct {
	Network string

	PointName, PointSymbol string
	PointInitialSupply     *big.Int

	DummyName, DummySymbol string
	DummySupply            *big.Int

	PositionManager common.Address
	StateView       common.Address
	WETH            common.Address

	Random config.Random
	// Seed for the ticker generator; zero picks a random one.
	Seed uint64
}

// PlanFromConfig builds a Plan from the loaded configuration.
func PlanFromConfig(cfg *config.Config, network string, seed uint64) Plan {
	p := Plan{Network: network, Random: cfg.GetRandom(), Seed: seed}
	p.PointName, p.PointSymbol, p.PointInitialSupply = cfg.GetPointToken()
	p.DummyName, p.DummySymbol, p.DummySupply = cfg.GetDummyToken()
	u := cfg.GetUniswap()
	p.PositionManager = common.HexToAddress(u.PositionManager)
	p.StateView = common.HexToAddress(u.StateView)
	p.WETH = common.HexToAddress(u.WETH)
	return p
}

// Saver persists the deployment record after each step.
type Saver interface {
	Save(rec *deployments.Record) error
}

// DeployAMM101 deploys PointERC20, DummyToken and Evaluator in order, makes
// the Evaluator the point token's teacher and loads the random tickers and
// supplies. Steps already present in rec are skipped; pass a nil rec for a
// fresh deployment. The record is saved after every completed step and is
// returned even on failure so the caller can report progress.
func DeployAMM101(ctx context.Context, client chain.Client, contracts *Contracts, plan Plan, rec *deployments.Record, store Saver) (*deployments.Record, error) {
	if err := contracts.Check(plan.Random.Count); err != nil {
		return rec, fmt.Errorf("failed to validate artifacts: %w", err)
	}

	chainID := client.ChainID()
	from := client.From()
	if rec == nil {
		rec = deployments.NewRecord(plan.Network, chainID.Uint64(), from.Hex())
	} else if err := checkResumable(ctx, client, rec, plan.Network, chainID, from); err != nil {
		return rec, err
	}

	ui.Info.Println(fmt.Sprintf("%s Deploying contracts to %s (chain %s) from %s...", ui.GlobeEmoji, plan.Network, chainID, from.Hex()))

	// 1. Point token
	if err := deployStep(ctx, client, store, rec, contracts.PointToken,
		plan.PointName, plan.PointSymbol, plan.PointInitialSupply); err != nil {
		return rec, err
	}

	// 2. Dummy token
	if err := deployStep(ctx, client, store, rec, contracts.DummyToken,
		plan.DummyName, plan.DummySymbol, plan.DummySupply); err != nil {
		return rec, err
	}

	// 3. Evaluator
	pointAddr := common.HexToAddress(rec.PointToken.Address)
	dummyAddr := common.HexToAddress(rec.DummyToken.Address)
	if err := deployStep(ctx, client, store, rec, contracts.Evaluator,
		pointAddr, dummyAddr, plan.PositionManager, plan.StateView, plan.WETH); err != nil {
		return rec, err
	}
	evaluatorAddr := common.HexToAddress(rec.Evaluator.Address)

	// 4. Hand the evaluator minting rights
	if rec.TeacherSet {
		ui.Info.Println("Teacher already set, skipping")
	} else {
		spinner, _ := ui.Spin(fmt.Sprintf("%s Setting %s as teacher on %s...", ui.TxEmoji, deployments.Evaluator, deployments.PointERC20))
		res, err := client.Transact(ctx, pointAddr, contracts.PointToken.ABI, MethodSetTeacher, evaluatorAddr, true)
		if err != nil {
			spinner.Fail("Failed to set teacher")
			return rec, fmt.Errorf("failed to set teacher: %w", err)
		}
		spinner.Success(fmt.Sprintf("Teacher set successfully (tx %s)", res.TxHash.Hex()))
		rec.TeacherSet = true
		rec.TeacherTx = res.TxHash.Hex()
		if err := store.Save(rec); err != nil {
			return rec, fmt.Errorf("failed to save deployment record: %w", err)
		}
	}

	// 5. Random values, reused from the record when resuming
	if rec.Random == nil {
		r := plan.Random
		values, err := tickers.GenerateSeeded(plan.Seed, r.Count, r.TickerLength, r.MaxSupply)
		if err != nil {
			return rec, fmt.Errorf("failed to generate random values: %w", err)
		}
		rec.Random = &deployments.RandomValues{
			Seed:     values.Seed,
			Supplies: values.SupplyStrings(),
			Tickers:  values.Tickers,
		}
		if err := store.Save(rec); err != nil {
			return rec, fmt.Errorf("failed to save deployment record: %w", err)
		}
	}
	supplies, err := parseSupplies(rec.Random.Supplies)
	if err != nil {
		return rec, fmt.Errorf("failed to read recorded random supplies: %w", err)
	}
	ui.Info.Println(fmt.Sprintf("%s Random values (seed %d)", ui.DiceEmoji, rec.Random.Seed))
	PrintRandomValues(os.Stdout, rec.Random)

	// 6. Load them into the evaluator
	if rec.RandomSet {
		ui.Info.Println("Random tickers and supply already set, skipping")
	} else {
		spinner, _ := ui.Spin(fmt.Sprintf("%s Setting random tickers and supply...", ui.TxEmoji))
		res, err := client.Transact(ctx, evaluatorAddr, contracts.Evaluator.ABI, MethodSetRandom, supplies, rec.Random.Tickers)
		if err != nil {
			spinner.Fail("Failed to set random tickers and supply")
			return rec, fmt.Errorf("failed to set random tickers and supply: %w", err)
		}
		spinner.Success(fmt.Sprintf("Random tickers and supply set successfully (tx %s)", res.TxHash.Hex()))
		rec.RandomSet = true
		rec.RandomTx = res.TxHash.Hex()
		if err := store.Save(rec); err != nil {
			return rec, fmt.Errorf("failed to save deployment record: %w", err)
		}
	}

	return rec, nil
}

// deployStep deploys art unless rec already holds it.
func deployStep(ctx context.Context, client chain.Client, store Saver, rec *deployments.Record, art *artifacts.Artifact, args ...interface{}) error {
	if c := rec.Contract(art.Name); c != nil {
		ui.Info.Println(fmt.Sprintf("%s %s already deployed at %s, skipping", ui.ContractEmoji, art.Name, c.Address))
		return nil
	}

	spinner, _ := ui.Spin(fmt.Sprintf("%s Deploying %s...", ui.ContractEmoji, art.Name))
	res, err := client.Deploy(ctx, art, args...)
	if err != nil {
		spinner.Fail(fmt.Sprintf("Failed to deploy %s", art.Name))
		return fmt.Errorf("failed to deploy %s: %w", art.Name, err)
	}
	spinner.Success(fmt.Sprintf("%s deployed at %s", art.Name, res.Address.Hex()))

	if err := rec.SetContract(&deployments.Contract{
		Name:    art.Name,
		Address: res.Address.Hex(),
		TxHash:  res.TxHash.Hex(),
		Block:   res.Block,
		Args:    ArgStrings(args),
	}); err != nil {
		return err
	}
	if err := store.Save(rec); err != nil {
		return fmt.Errorf("failed to save deployment record: %w", err)
	}
	return nil
}

// checkResumable rejects a record from another network, chain or deployer,
// and one whose contracts are no longer on chain.
func checkResumable(ctx context.Context, client chain.Client, rec *deployments.Record, network string, chainID *big.Int, from common.Address) error {
	if rec.Network != network {
		return fmt.Errorf("deployment record is for network %s, not %s", rec.Network, network)
	}
	if !chainID.IsUint64() || rec.ChainID != chainID.Uint64() {
		return fmt.Errorf("%w: deployment record is for chain %d, node reports %s", chain.ErrChainIDMismatch, rec.ChainID, chainID)
	}
	if !strings.EqualFold(rec.Deployer, from.Hex()) {
		return fmt.Errorf("deployment record was created by %s, current key is %s", rec.Deployer, from.Hex())
	}
	for _, c := range rec.Contracts() {
		code, err := client.CodeAt(ctx, common.HexToAddress(c.Address))
		if err != nil {
			return fmt.Errorf("failed to check %s at %s: %w", c.Name, c.Address, err)
		}
		if len(code) == 0 {
			return fmt.Errorf("recorded %s at %s has no code (was the chain reset?); deploy again without --resume", c.Name, c.Address)
		}
	}
	return nil
}

// ArgStrings renders constructor arguments the way they are recorded.
func ArgStrings(args []interface{}) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case common.Address:
			out[i] = v.Hex()
		case *big.Int:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func parseSupplies(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, s := range values {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid supply %q at index %d", s, i)
		}
		out[i] = v
	}
	return out, nil
}
