package qaharness

import (
	"fmt"

	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/spf13/cobra"
)

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return exitcodes.New(exitcodes.RuntimeErr, err)
			}
			fmt.Fprintln(c.stdout, cfg.String())
			if err := cfg.Validate(); err != nil {
				return exitcodes.New(exitcodes.RuntimeErr, err)
			}
			return nil
		},
	}
}
