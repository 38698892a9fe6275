package main

import (
	"github.com/KOMKZ/go-yogan-propagation/application"
	"github.com/KOMKZ/go-yogan-propagation/flagx"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	Addr string `flag:"addr,a" usage:"listen address" config:"playground.addr"`
	Mode string `flag:"mode" usage:"gin mode: debug, release or test" config:"playground.mode"`
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scenario API over HTTP",
		Args:  cobra.NoArgs,
	}
	if err := flagx.BindFlags(cmd.Flags(), &serveFlags{}); err != nil {
		panic(err)
	}
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		var flags serveFlags
		if err := flagx.ParseFlags(cmd.Flags(), &flags); err != nil {
			return err
		}
		opts, err := optionsFrom(cmd, &flags)
		if err != nil {
			return err
		}
		app, err := application.NewHTTP(opts)
		if err != nil {
			return err
		}
		return app.Run()
	}
	return cmd
}
