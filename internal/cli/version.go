package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X github.com/mbd888/risc/internal/cli.riscctlVersion=x.y.z"
var riscctlVersion = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show riscctl version and the API endpoint it would call",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "riscctl version %s\n", riscctlVersion)
		if client != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "API endpoint: %s\n", client.BaseURL())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
