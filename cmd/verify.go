package cmd

import (
	"fmt"
	"os"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/setup"
	"amm101ctl/pkg/ui"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the block explorer verification commands for a deployment",
	Long: `Reads the saved deployment record for --network and prints one
"npx hardhat verify" command per deployed contract, using the constructor
arguments that were actually deployed.`,
	Run: func(cmd *cobra.Command, args []string) {
		store := deployments.NewStore(config.Loaded.GetDeploymentsDir())
		rec, err := store.Load(networkName)
		if err != nil {
			ui.Error.Println(err.Error())
			ui.Warn.Println(fmt.Sprintf("Run `amm101ctl deploy --network %s` first.", networkName))
			os.Exit(1)
		}

		cmds := setup.VerificationCommands(rec)
		if len(cmds) == 0 {
			ui.Warn.Println("No contracts have been deployed on " + networkName)
			return
		}
		for _, c := range cmds {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		if !rec.Complete() {
			ui.Warn.Println("The deployment is incomplete; only deployed contracts are listed.")
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
