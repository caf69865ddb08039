package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/openmux/statusd/internal/api/models"
)

// CreatePairCmd creates the pair command.
func CreatePairCmd() *cobra.Command {
	var flags clientFlags
	var stop bool

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Open or close the pairing window",
		Long: `Opens a pairing window so new devices can join the mesh. ` +
			`The window closes on its own after the configured timeout, on join, or with --stop.`,
		Run: func(cmd *cobra.Command, _ []string) {
			client := flags.client()

			method := http.MethodPost
			if stop {
				method = http.MethodDelete
			}

			var status models.NetworkResponse
			if err := client.call(cmd.Context(), method, "/api/network/pairing", nil, &status.Body); err != nil {
				fail(err)
			}

			if status.Body.Pairing {
				fmt.Printf("Pairing window open until %s\n", status.Body.PairingEnds)
			} else {
				fmt.Println("Pairing window closed")
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&stop, "stop", false, "Close an open pairing window")
	return cmd
}
