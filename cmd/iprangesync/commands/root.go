// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the iprangesync CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iprangesync",
		Short: "Sync AWS IP ranges into WAF IP sets and managed prefix lists",
	}

	cmd.AddCommand(Sync())
	cmd.AddCommand(Version())

	return cmd
}
