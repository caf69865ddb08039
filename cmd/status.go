package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmux/statusd/internal/api/models"
)

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show node status",
		Long:  `Queries the running daemon and prints the LED, mesh network, and daemon state.`,
		Run: func(cmd *cobra.Command, _ []string) {
			var status models.StatusData
			if err := flags.client().call(cmd.Context(), http.MethodGet, "/api/status", nil, &status); err != nil {
				fail(err)
			}

			fmt.Printf("Version:   %s (up %s)\n", status.Version, (time.Duration(status.Uptime) * time.Second).String())
			fmt.Printf("LED:       %s on %s\n", status.LED.State, status.LED.Device)
			fmt.Printf("Network:   joined=%v pairing=%v\n", status.Network.Joined, status.Network.Pairing)
			if status.Network.PairingEnds != "" {
				fmt.Printf("           pairing window closes %s\n", status.Network.PairingEnds)
			}
			fmt.Printf("Unit:      %s (%s)\n", status.Network.Unit, status.Network.UnitState)
			if status.Network.LastError != "" {
				fmt.Printf("Last error: %s\n", status.Network.LastError)
			}
		},
	}

	flags.register(cmd)
	return cmd
}
