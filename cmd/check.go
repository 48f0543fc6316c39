package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/env"
	"amm101ctl/pkg/format"
	"amm101ctl/pkg/ui"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// MinNodeMajor is the oldest Node.js release hardhat supports.
const MinNodeMajor = 18

type checkRow struct {
	name   string
	ok     bool
	warn   bool
	detail string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a deployment can run",
	Long:  `Checks the deployer key, the compiled contract artifacts, the Node.js tooling used by the verify commands, and that the RPC endpoint for --network answers with the expected chain ID.`,
	Run: func(cmd *cobra.Command, args []string) {
		n, err := resolveNetwork()
		if err != nil {
			ui.Error.Println("Invalid network: " + err.Error())
			os.Exit(1)
		}

		ui.Info.Println("Checking prerequisites...")
		res := env.CheckPrerequisites(env.OSExecutor{}, config.Loaded.GetArtifactsDir(), deployments.ContractNames, n.PrivateKey())
		rows := prerequisiteRows(res, n)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		rows = append(rows, networkRows(ctx, n, res.HasPrivateKey)...)

		renderCheckTable(os.Stdout, rows)

		for _, r := range rows {
			if !r.ok && !r.warn {
				ui.Error.Println("Not ready to deploy on " + n.Name)
				os.Exit(1)
			}
		}
		ui.Success.Println(fmt.Sprintf("Ready to deploy on %s", n.Name))
	},
}

func prerequisiteRows(res *env.CheckResult, n *config.ResolvedNetwork) []checkRow {
	var rows []checkRow

	key := checkRow{name: "Deployer key", ok: res.HasPrivateKey, detail: n.PrivateKeyEnv}
	if !res.HasPrivateKey {
		key.detail = fmt.Sprintf("%s: %s", n.PrivateKeyEnv, res.PrivateKeyErr)
	}
	rows = append(rows, key)

	names := make([]string, 0, len(res.Artifacts))
	for name := range res.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := checkRow{name: name + " artifact", ok: res.Artifacts[name], detail: config.Loaded.GetArtifactsDir()}
		if !r.ok {
			r.detail = "not found in " + r.detail + " (run `npx hardhat compile`)"
		}
		rows = append(rows, r)
	}

	rows = append(rows, nodeRow(res))

	npx := checkRow{name: "npx", ok: res.HasNpx, warn: !res.HasNpx, detail: "found"}
	if !res.HasNpx {
		npx.detail = "not found; needed for the verify commands"
	}
	return append(rows, npx)
}

// nodeRow never fails the check: Node.js is only needed for verification.
func nodeRow(res *env.CheckResult) checkRow {
	if !res.HasNode {
		return checkRow{name: "Node.js", warn: true, detail: "not installed; needed for the verify commands"}
	}
	r := checkRow{name: "Node.js", ok: true, detail: res.NodeVer}
	if major, ok := nodeMajor(res.NodeVer); ok && major < MinNodeMajor {
		r.ok, r.warn = false, true
		r.detail = fmt.Sprintf("%s is older than v%d", res.NodeVer, MinNodeMajor)
	}
	return r
}

// nodeMajor parses the major version out of `node --version` output.
func nodeMajor(ver string) (int, bool) {
	if !strings.HasPrefix(ver, "v") {
		return 0, false
	}
	major, _, _ := strings.Cut(ver[1:], ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, false
	}
	return n, true
}

func networkRows(ctx context.Context, n *config.ResolvedNetwork, hasKey bool) []checkRow {
	client, err := dialNetwork(ctx, n, nil)
	if err != nil {
		return []checkRow{{name: "RPC " + n.Name, detail: err.Error()}}
	}
	defer client.Close()

	rows := []checkRow{{name: "RPC " + n.Name, ok: true, detail: fmt.Sprintf("%s (chain %d)", n.RPCURL, n.ChainID)}}
	if !hasKey {
		return rows
	}

	key, err := loadKey(n)
	if err != nil {
		return rows
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	bal, err := client.Balance(ctx, addr)
	if err != nil {
		return append(rows, checkRow{name: "Deployer balance", warn: true, detail: err.Error()})
	}
	r := checkRow{name: "Deployer balance", ok: bal.Sign() > 0, detail: fmt.Sprintf("%s %s", addr.Hex(), format.Ether(bal))}
	if bal.Sign() == 0 {
		r.warn = true
		r.detail += " (fund the deployer before deploying)"
	}
	return append(rows, r)
}

func renderCheckTable(w io.Writer, rows []checkRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, r := range rows {
		status := format.StatusOK
		switch {
		case r.ok:
		case r.warn:
			status = format.StatusWarning
		default:
			status = format.StatusFailed
		}
		t.AppendRow(table.Row{r.name, format.RenderStatus(status), r.detail})
	}
	t.Render()
}

func init() {
	checkCmd.Flags().StringVar(&privateKeyEnv, "private-key-env", "", "Environment variable holding the deployer key (overrides the network setting)")
	rootCmd.AddCommand(checkCmd)
}
