package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/setup"
	"amm101ctl/pkg/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	deployResume bool
	deploySeed   uint64
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy and configure the AMM-101 contracts",
	Long: `Deploys PointERC20, DummyToken and Evaluator in order, sets the Evaluator as
the point token's teacher, loads random tickers and supplies into the Evaluator
and prints the verification commands.

Every step waits for its receipt before the next one starts. Progress is saved
to the deployment record after each step; use --resume to continue a failed run.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		n, err := resolveNetwork()
		if err != nil {
			ui.Error.Println("Invalid network: " + err.Error())
			os.Exit(1)
		}
		key, err := loadKey(n)
		if err != nil {
			ui.Error.Println("Missing deployer key: " + err.Error())
			os.Exit(1)
		}
		ui.Info.Println(fmt.Sprintf("%s Deployer key read from %s", ui.KeyEmoji, n.PrivateKeyEnv))

		cfg := config.Loaded
		contracts, err := setup.LoadContracts(cfg.GetArtifactsDir())
		if err != nil {
			ui.Error.Println(err.Error())
			ui.Warn.Println("Compile the contracts first (`npx hardhat compile`) or set artifacts-dir in " + config.DefaultConfigFile)
			os.Exit(1)
		}
		plan := setup.PlanFromConfig(cfg, n.Name, deploySeed)
		if err := contracts.Check(plan.Random.Count); err != nil {
			ui.Error.Println("Artifacts do not match the deployment: " + err.Error())
			os.Exit(1)
		}

		store := deployments.NewStore(cfg.GetDeploymentsDir())
		var rec *deployments.Record
		if deployResume {
			rec, err = store.Load(n.Name)
			switch {
			case errors.Is(err, deployments.ErrNotFound):
				ui.Warn.Println("No deployment record to resume from, starting a fresh deployment")
				rec = nil
			case err != nil:
				ui.Error.Println(err.Error())
				os.Exit(1)
			case rec.Complete():
				ui.Success.Println(fmt.Sprintf("Deployment on %s is already complete", n.Name))
				setup.PrintDeploymentSummary(os.Stdout, rec, n)
				return
			}
		} else if store.Exists(n.Name) {
			ui.Warn.Println(fmt.Sprintf("Overwriting the previous deployment record %s", store.Path(n.Name)))
		}

		ui.Info.Println(fmt.Sprintf("Connecting to %s...", n.Name))
		client, err := dialNetwork(ctx, n, key)
		if err != nil {
			ui.Error.Println("Connection failed: " + err.Error())
			os.Exit(1)
		}
		defer client.Close()

		logger.Info("deployment started",
			zap.String("network", n.Name),
			zap.String("deployer", client.From().Hex()),
			zap.Bool("resume", rec != nil))

		rec, err = setup.DeployAMM101(ctx, client, contracts, plan, rec, store)
		if err != nil {
			logger.Error("deployment failed", zap.Error(err))
			ui.Error.Println("Deployment failed: " + err.Error())
			if rec != nil && len(rec.Contracts()) > 0 {
				ui.Warn.Println(fmt.Sprintf("The deployment is partially complete. Run `amm101ctl deploy --resume --network %s` to continue.", n.Name))
			}
			os.Exit(1)
		}

		setup.PrintDeploymentSummary(os.Stdout, rec, n)
		logger.Info("deployment complete", zap.String("record", store.Path(n.Name)))
		ui.Success.Println(fmt.Sprintf("%s AMM-101 is deployed on %s. Record saved to %s", ui.GlobeEmoji, n.Name, store.Path(n.Name)))
	},
}

func init() {
	deployCmd.Flags().BoolVar(&deployResume, "resume", false, "Continue from the saved deployment record, skipping completed steps")
	deployCmd.Flags().Uint64Var(&deploySeed, "seed", 0, "Seed for the random tickers and supplies (0 picks one at random)")
	deployCmd.Flags().StringVar(&privateKeyEnv, "private-key-env", "", "Environment variable holding the deployer key (overrides the network setting)")
	rootCmd.AddCommand(deployCmd)
}
