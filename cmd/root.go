package cmd

import (
	"os"

	"amm101ctl/pkg/config"
	"amm101ctl/pkg/logging"
	"amm101ctl/pkg/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultEnvFile is loaded before the configuration is resolved.
const DefaultEnvFile = ".env"

var (
	configFile  string
	envFile     string
	networkName string
	verbose     bool
	logFile     string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "amm101ctl",
	Short: "amm101ctl deploys and inspects the AMM-101 workshop contracts",
	Long: `Deploys the AMM-101 workshop contracts (PointERC20, DummyToken and Evaluator)
to an EVM network in dependency order, configures them and prints the commands
needed to verify them on a block explorer.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := loadEnvFile(envFile); err != nil {
			ui.Error.Println("Failed to load env file: " + err.Error())
			os.Exit(1)
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			ui.Error.Println("Failed to load config: " + err.Error())
			os.Exit(1)
		}
		config.Loaded = cfg

		l, err := logging.New(logging.Options{Verbose: verbose, File: logFile})
		if err != nil {
			ui.Error.Println(err.Error())
			os.Exit(1)
		}
		logger = l
		logger.Debug("configuration loaded",
			zap.String("config_file", configFile),
			zap.String("network", networkName))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", config.DefaultConfigFile, "Path to the amm101ctl.yaml configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", DefaultEnvFile, "Path to a dotenv file with PRIVATE_KEY and RPC URLs")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", config.DefaultNetwork, "Network to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write the structured log to this file")

	_ = rootCmd.RegisterFlagCompletionFunc("network", completeNetworks)
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && path == DefaultEnvFile {
		return nil
	}
	return godotenv.Load(path)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if wantsBanner(os.Args[1:]) {
		ui.PrintBanner()
	}
	if err := rootCmd.Execute(); err != nil {
		ui.Error.Println(err.Error())
		os.Exit(1)
	}
}

// GetRootCmd returns the root cobra command
func GetRootCmd() *cobra.Command {
	return rootCmd
}
