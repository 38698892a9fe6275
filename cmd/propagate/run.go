package main

import (
	"encoding/json"

	"github.com/KOMKZ/go-yogan-propagation/application"
	"github.com/KOMKZ/go-yogan-propagation/flagx"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type runFlags struct {
	MaxDepth int  `flag:"max-depth" usage:"nested dispatch limit" config:"playground.max_depth"`
	JSON     bool `flag:"json" usage:"print the result as JSON"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run a scenario file and print the trace",
		Args:  cobra.ExactArgs(1),
	}
	if err := flagx.BindFlags(cmd.Flags(), &runFlags{}); err != nil {
		panic(err)
	}
	var flags runFlags
	cmd.RunE = application.RunE(
		func(cmd *cobra.Command) (application.Options, error) {
			if err := flagx.ParseFlags(cmd.Flags(), &flags); err != nil {
				return application.Options{}, err
			}
			return optionsFrom(cmd, &flags)
		},
		func(app *application.CLIApplication, cmd *cobra.Command, args []string) error {
			s, err := playground.LoadFile(args[0])
			if err != nil {
				return err
			}
			runner, err := do.Invoke[*playground.Runner](app.Injector())
			if err != nil {
				return err
			}
			res, err := runner.Run(app.Context(), s)
			if err != nil {
				return err
			}
			if flags.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	)
	return cmd
}
