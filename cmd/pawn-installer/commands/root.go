package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pawn-installer",
	Short: "WhiteBeard Pawn plugin installer for MetaTrader 5",
	Long: `Installs the WhiteBeard Pawn plugin: locates and verifies the license,
finds the MetaTrader 5 installation and copies the plugin and license into place.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("license-search-dir", "", "Directory searched for *_pawn_plugin.lic files")
	flags.String("verify-url", "", "License verification endpoint")
	flags.Duration("verify-timeout", 0, "License verification timeout")
	flags.String("target-default-path", "", "Conventional MetaTrader 5 location checked after the registry")
	flags.String("system-data-dir", "", "WhiteBeard data directory receiving the license")
	flags.String("install-source-dir", "", "Directory holding the plugin payload")
	flags.Bool("interactive", true, "Allow terminal prompts for the license file and MT5 folder")
	flags.Bool("placeholder-identity", false, "Accept unreadable licenses with a placeholder identity")
	flags.String("state-db-path", "", "SQLite install journal path")
	flags.String("fsm-db-path", "", "FSM state directory")
	flags.String("payload-s3-bucket", "", "S3 bucket to fetch the plugin from when it is not shipped locally")
	flags.String("payload-s3-region", "", "S3 region of the payload bucket")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write logs to this rotated file")

	for _, name := range []string{
		"license-search-dir", "verify-url", "verify-timeout", "target-default-path",
		"system-data-dir", "install-source-dir", "interactive", "placeholder-identity",
		"state-db-path", "fsm-db-path", "payload-s3-bucket", "payload-s3-region",
		"log-level", "log-file",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}
