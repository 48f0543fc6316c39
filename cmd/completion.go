package cmd

import (
	"fmt"
	"io"
	"strings"

	"amm101ctl/pkg/config"

	"github.com/spf13/cobra"
)

// annotationNoBanner marks commands whose stdout must stay machine-readable.
const annotationNoBanner = "amm101ctl/no-banner"

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate a shell completion script",
	Long: `Writes a completion script for the given shell to stdout. Besides commands
and flags it completes --network with the built-in networks and those in the
configuration file.

  $ source <(amm101ctl completion bash)
  $ amm101ctl completion zsh > "${fpath[1]}/_amm101ctl"
  $ amm101ctl completion fish > ~/.config/fish/completions/amm101ctl.fish
  PS> amm101ctl completion powershell | Out-String | Invoke-Expression`,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs:             completionShells,
	DisableFlagsInUseLine: true,
	Annotations:           map[string]string{annotationNoBanner: "true"},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Completion scripts do not depend on the config or the key.
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCompletion(cmd.OutOrStdout(), args[0])
	},
}

func writeCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q (use one of %s)", shell, strings.Join(completionShells, ", "))
}

// completeNetworks offers the built-in and configured network names. The
// config file is read here because dynamic completion does not parse flags.
func completeNetworks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load(configFile)
	if err != nil {
		cfg = nil
	}
	var out []string
	for _, name := range cfg.NetworkNames() {
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// wantsBanner reports whether the banner may be printed before running args.
func wantsBanner(args []string) bool {
	if len(args) > 0 && strings.HasPrefix(args[0], cobra.ShellCompRequestCmd) {
		return false
	}
	c, _, err := rootCmd.Find(args)
	return err != nil || c.Annotations[annotationNoBanner] == ""
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
