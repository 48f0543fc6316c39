package setup

import (
	"fmt"

	"amm101ctl/pkg/artifacts"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/ui"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contracts holds the three compiled artifacts the pipeline deploys.
type Contracts struct {
	PointToken *artifacts.Artifact
	DummyToken *artifacts.Artifact
	Evaluator  *artifacts.Artifact
}

// LoadContracts loads the PointERC20, DummyToken and Evaluator artifacts from dir.
func LoadContracts(dir string) (*Contracts, error) {
	ui.Info.Println("Loading contract artifacts from " + dir)

	load := func(name string) (*artifacts.Artifact, error) {
		art, err := artifacts.Load(dir, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		return art, nil
	}

	var c Contracts
	var err error
	if c.PointToken, err = load(deployments.PointERC20); err != nil {
		return nil, err
	}
	if c.DummyToken, err = load(deployments.DummyToken); err != nil {
		return nil, err
	}
	if c.Evaluator, err = load(deployments.Evaluator); err != nil {
		return nil, err
	}
	return &c, nil
}

// Check verifies the artifacts expose the constructors and methods the
// pipeline calls, so a mismatch is caught before any gas is spent.
func (c *Contracts) Check(randomCount int) error {
	for _, want := range []struct {
		art   *artifacts.Artifact
		arity int
	}{
		{c.PointToken, PointTokenCtorArity},
		{c.DummyToken, DummyTokenCtorArity},
		{c.Evaluator, EvaluatorCtorArity},
	} {
		if want.art == nil {
			return fmt.Errorf("missing contract artifact")
		}
		if got := want.art.ConstructorArity(); got != want.arity {
			return fmt.Errorf("%s constructor takes %d arguments, expected %d", want.art.Name, got, want.arity)
		}
	}

	if !c.PointToken.HasMethod(MethodSetTeacher) {
		return fmt.Errorf("%s has no %s method", c.PointToken.Name, MethodSetTeacher)
	}
	if !c.Evaluator.HasMethod(MethodSetRandom) {
		return fmt.Errorf("%s has no %s method", c.Evaluator.Name, MethodSetRandom)
	}

	m := c.Evaluator.ABI.Methods[MethodSetRandom]
	if len(m.Inputs) != 2 {
		return fmt.Errorf("%s takes %d arguments, expected 2", MethodSetRandom, len(m.Inputs))
	}
	for _, in := range m.Inputs {
		if in.Type.T == abi.ArrayTy && in.Type.Size != randomCount {
			return fmt.Errorf("%s expects %d values for %s, configured random count is %d",
				MethodSetRandom, in.Type.Size, in.Name, randomCount)
		}
	}
	return nil
}
