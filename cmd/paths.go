package cmd

import (
	"fmt"
	"io"

	spellstrconfig "github.com/lai323/spellstr/config"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "print where config, data and logs are kept",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printPaths(cmd.OutOrStdout(), config, configPath)
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func printPaths(out io.Writer, cfg spellstrconfig.Config, configFile string) {
	fmt.Fprintln(out, "config:  ", spellstrconfig.GetStringOption(configFile, spellstrconfig.DefaultConfigPath))
	fmt.Fprintln(out, "words:   ", cfg.DbFile())
	fmt.Fprintln(out, "cache:   ", cfg.CacheFile())
	fmt.Fprintln(out, "log:     ", spellstrconfig.DefaultLogPath)
}
