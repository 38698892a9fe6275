package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario-file>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := playground.LoadFile(args[0])
			if err == nil {
				err = playground.ValidateScenario(s)
			}
			out := cmd.OutOrStdout()
			if err == nil {
				fmt.Fprintf(out, "%s %s: %d nodes, %d listeners, %d dispatches\n",
					color.GreenString("ok"), s.Name, len(s.Nodes), len(s.Listeners), len(s.Dispatches))
				return nil
			}
			var lerr *errcode.LayeredError
			if errors.As(err, &lerr) {
				if fields, ok := lerr.Data()["fields"].(map[string]string); ok {
					keys := make([]string, 0, len(fields))
					for k := range fields {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(out, "%s %s: %s\n", color.RedString("invalid"), k, fields[k])
					}
				}
			}
			return err
		},
	}
}
