// Command propagate runs event propagation scenarios from files or over
// HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/KOMKZ/go-yogan-propagation/application"
	"github.com/KOMKZ/go-yogan-propagation/flagx"
	"github.com/spf13/cobra"
)

// globalFlags locate configuration for every subcommand.
type globalFlags struct {
	ConfigDir  string `flag:"config,c" usage:"directory holding config.yaml and {env}.yaml" default:"./configs"`
	ConfigFile string `flag:"config-file" usage:"extra config file layered on top"`
	EnvPrefix  string `flag:"env-prefix" usage:"environment variable prefix" default:"PROPAGATE"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "propagate",
		Short:         "Event propagation playground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if err := flagx.BindFlags(root.PersistentFlags(), &globalFlags{}); err != nil {
		panic(err)
	}
	root.AddCommand(newRunCmd(), newServeCmd(), newValidateCmd())
	return root
}

// optionsFrom reads the global flags and layers overrides, a struct with
// config tags, above every other configuration source.
func optionsFrom(cmd *cobra.Command, overrides interface{}) (application.Options, error) {
	var g globalFlags
	if err := flagx.ParseFlags(cmd.Flags(), &g); err != nil {
		return application.Options{}, err
	}
	return application.Options{
		ConfigPath:   g.ConfigDir,
		ConfigFile:   g.ConfigFile,
		ConfigPrefix: g.EnvPrefix,
		Flags:        overrides,
	}, nil
}
