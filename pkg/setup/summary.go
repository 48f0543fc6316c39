package setup

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/deployments"
	"amm101ctl/pkg/format"
	"amm101ctl/pkg/ui"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Arguments matching this are printed unquoted in verify commands. Longer
// integers are quoted so the hardhat CLI does not round them.
var bareArgRegex = regexp.MustCompile(`^(0x[a-fA-F0-9]{40}|true|false|-?[0-9]{1,15})$`)

// PrintDeploymentSummary renders the deployed contracts, the verification
// commands and the pool reminder to w.
func PrintDeploymentSummary(w io.Writer, rec *deployments.Record, net *config.ResolvedNetwork) {
	fmt.Fprintln(w)
	ui.Info.WithWriter(w).Println("=== Deployment Summary ===")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Contract", "Address", "Block", "Tx"})
	for _, name := range deployments.ContractNames {
		c := rec.Contract(name)
		if c == nil {
			t.AppendRow(table.Row{name, format.RenderStatus(format.StatusMissing), "-", "-"})
			continue
		}
		t.AppendRow(table.Row{name, c.Address, c.Block, format.ShortHex(c.TxHash)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"setTeacher", stepStatus(rec.TeacherSet), "", format.ShortHex(rec.TeacherTx)})
	t.AppendRow(table.Row{MethodSetRandom, stepStatus(rec.RandomSet), "", format.ShortHex(rec.RandomTx)})
	t.Render()

	if links := explorerLinks(rec, net); len(links) > 0 {
		fmt.Fprintln(w)
		for _, l := range links {
			fmt.Fprintln(w, "🔗 "+l)
		}
	}

	cmds := VerificationCommands(rec)
	if len(cmds) > 0 {
		fmt.Fprintln(w)
		ui.Info.WithWriter(w).Println("To verify on Etherscan:")
		for _, c := range cmds {
			fmt.Fprintln(w, c)
		}
	}

	fmt.Fprintln(w)
	ui.Warn.WithWriter(w).Println(PoolReminder(rec))
	fmt.Fprintln(w)
}

// VerificationCommands returns one hardhat verify command per deployed
// contract, using the constructor arguments recorded at deploy time.
func VerificationCommands(rec *deployments.Record) []string {
	var cmds []string
	for _, c := range rec.Contracts() {
		parts := []string{CmdHardhatVerify, rec.Network, c.Address}
		for _, a := range c.Args {
			parts = append(parts, shellArg(a))
		}
		cmds = append(cmds, strings.Join(parts, " "))
	}
	return cmds
}

// PoolReminder names the two tokens the Uniswap v4 pool must pair.
func PoolReminder(rec *deployments.Record) string {
	msg := MsgPoolReminder
	var weth, dtk string
	if rec.Evaluator != nil && len(rec.Evaluator.Args) == EvaluatorCtorArity {
		weth = rec.Evaluator.Args[4]
	}
	if rec.DummyToken != nil {
		dtk = rec.DummyToken.Address
	}
	if weth != "" && dtk != "" {
		msg += fmt.Sprintf(" (WETH %s, DummyToken %s)", weth, dtk)
	}
	return msg
}

// PrintRandomValues renders the generated tickers and supplies as a table.
func PrintRandomValues(w io.Writer, rv *deployments.RandomValues) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Ticker", "Supply"})
	for i, ticker := range rv.Tickers {
		supply := "-"
		if i < len(rv.Supplies) {
			supply = format.WithCommas(rv.Supplies[i])
		}
		t.AppendRow(table.Row{i, ticker, supply})
	}
	t.Render()
}

func explorerLinks(rec *deployments.Record, net *config.ResolvedNetwork) []string {
	var links []string
	for _, c := range rec.Contracts() {
		if u := net.AddressURL(c.Address); u != "" {
			links = append(links, fmt.Sprintf("%s: %s", c.Name, u))
		}
	}
	return links
}

func stepStatus(done bool) string {
	if done {
		return format.RenderStatus(format.StatusDone)
	}
	return format.RenderStatus(format.StatusPending)
}

func shellArg(a string) string {
	if bareArgRegex.MatchString(a) {
		return a
	}
	return strconv.Quote(a)
}
