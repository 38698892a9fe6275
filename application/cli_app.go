package application

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLIApplication runs a single command body inside the component
// lifecycle.
type CLIApplication struct {
	*BaseApplication
}

// NewCLI creates the application
func NewCLI(opts Options) (*CLIApplication, error) {
	base, err := NewBase(opts)
	if err != nil {
		return nil, err
	}
	return &CLIApplication{BaseApplication: base}, nil
}

// Run sets up the components, runs fn and always shuts down afterwards.
func (c *CLIApplication) Run(fn func(*CLIApplication) error) error {
	if err := c.Setup(); err != nil {
		_ = c.Shutdown(c.appConfig.ShutdownTimeout)
		return fmt.Errorf("setup failed: %w", err)
	}
	c.setState(StateRunning)

	err := fn(c)
	if err != nil {
		c.logger.DebugCtx(c.ctx, "command failed", zap.Error(err))
	}
	shutdownErr := c.Shutdown(c.appConfig.ShutdownTimeout)
	if err != nil {
		return err
	}
	return shutdownErr
}

// RunE adapts fn to a cobra RunE, building the application from opts at
// execution time so flags are already parsed.
func RunE(opts func(cmd *cobra.Command) (Options, error), fn func(*CLIApplication, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		o, err := opts(cmd)
		if err != nil {
			return err
		}
		app, err := NewCLI(o)
		if err != nil {
			return err
		}
		return app.Run(func(c *CLIApplication) error {
			return fn(c, cmd, args)
		})
	}
}
