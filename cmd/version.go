package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmux/statusd/internal/version"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Printf("statusd %s\n", info.Version)
			fmt.Printf("  commit: %s\n", info.Commit)
			fmt.Printf("  built:  %s\n", info.Date)
			fmt.Printf("  go:     %s (%s)\n", info.GoVersion, info.Platform)
		},
	}
}
