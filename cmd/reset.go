package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// CreateResetCmd creates the reset command.
func CreateResetCmd() *cobra.Command {
	var flags clientFlags
	var factory bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Leave the mesh network",
		Long: `Forgets mesh membership and restarts the mesh daemon. ` +
			`With --factory, also wipes every stored network setting.`,
		Run: func(cmd *cobra.Command, _ []string) {
			client := flags.client()

			path := "/api/network/leave"
			if factory {
				path = "/api/network/reset"
			}

			var result struct {
				Message string `json:"message"`
			}
			if err := client.call(cmd.Context(), http.MethodPost, path, nil, &result); err != nil {
				fail(err)
			}
			fmt.Println(result.Message)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&factory, "factory", false, "Also wipe stored network settings")
	return cmd
}
