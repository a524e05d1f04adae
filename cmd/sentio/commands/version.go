package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/cmd/sentio/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputResult(build.Get())
	},
}
