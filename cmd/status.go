package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/format"
	"amm101ctl/pkg/status"
	"amm101ctl/pkg/ui"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is deployed on a network",
	Long:  `Reads the saved deployment record for --network back from chain: code presence, token metadata, configuration steps and the deployer balance.`,
	Run: func(cmd *cobra.Command, args []string) {
		n, err := resolveNetwork()
		if err != nil {
			ui.Error.Println("Invalid network: " + err.Error())
			os.Exit(1)
		}

		store := deployments.NewStore(config.Loaded.GetDeploymentsDir())
		rec, err := store.Load(n.Name)
		if err != nil {
			ui.Error.Println(err.Error())
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := dialNetwork(ctx, n, nil)
		if err != nil {
			ui.Warn.Println("Chain unreachable, showing the saved record only: " + err.Error())
			renderRecordTable(os.Stdout, rec)
			renderStepTable(os.Stdout, status.Steps(rec))
			return
		}
		defer client.Close()

		st := status.Gather(ctx, client, rec)
		renderOverviewTable(os.Stdout, st, n)
		renderContractTable(os.Stdout, st.Contracts)
		renderStepTable(os.Stdout, st.Steps)
		if st.Random != nil {
			renderRandomSummary(os.Stdout, st.Random)
		}
	},
}

func renderOverviewTable(w io.Writer, st status.DeploymentStatus, n *config.ResolvedNetwork) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRow(table.Row{"Network", st.Network})
	t.AppendRow(table.Row{"Chain ID", st.ChainID})
	t.AppendRow(table.Row{"Deployer", st.Deployer})
	t.AppendRow(table.Row{"Balance", format.Ether(st.Balance)})
	if n.ExplorerURL != "" {
		t.AppendRow(table.Row{"Explorer", n.ExplorerURL})
	}

	ui.Info.WithWriter(w).Println("Network")
	t.Render()
	fmt.Fprintln(w)
}

func renderContractTable(w io.Writer, contracts []status.ContractStat) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Contract", "Address", "Status", "Code", "Token", "Total Supply"})

	for _, c := range contracts {
		token, supply := "-", "-"
		if c.Token != nil {
			token = fmt.Sprintf("%s (%s)", c.Token.Name, c.Token.Symbol)
			supply = c.Token.Supply()
		}
		code := "-"
		if c.CodeSize > 0 {
			code = format.Uint(uint64(c.CodeSize)) + " bytes"
		}
		t.AppendRow(table.Row{c.Name, c.Address, format.RenderStatus(c.Status), code, token, supply})
	}

	ui.Info.WithWriter(w).Println("Contracts")
	t.Render()
	for _, c := range contracts {
		if c.Err != "" {
			ui.Warn.WithWriter(w).Println(fmt.Sprintf("%s: %s", c.Name, c.Err))
		}
	}
	fmt.Fprintln(w)
}

func renderStepTable(w io.Writer, steps []status.StepStat) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Step", "Status", "Tx"})
	for _, s := range steps {
		t.AppendRow(table.Row{s.Name, format.RenderStatus(s.Status), s.Tx})
	}

	ui.Info.WithWriter(w).Println("Configuration")
	t.Render()
	fmt.Fprintln(w)
}

func renderRecordTable(w io.Writer, rec *deployments.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Contract", "Address", "Block"})
	for _, name := range deployments.ContractNames {
		if c := rec.Contract(name); c != nil {
			t.AppendRow(table.Row{name, c.Address, c.Block})
		} else {
			t.AppendRow(table.Row{name, format.RenderStatus(format.StatusPending), "-"})
		}
	}

	ui.Info.WithWriter(w).Println("Contracts (from " + rec.Network + " record)")
	t.Render()
	fmt.Fprintln(w)
}

func renderRandomSummary(w io.Writer, rv *deployments.RandomValues) {
	ui.Info.WithWriter(w).Println(fmt.Sprintf("%s %d random tickers (seed %d)", ui.DiceEmoji, len(rv.Tickers), rv.Seed))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
