package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openmux/statusd/internal/api/models"
)

// CreateLEDCmd creates the led command.
func CreateLEDCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "led [state]",
		Short: "Show or set the status LED",
		Long: `Without arguments, prints the display state currently shown on the status LED. ` +
			`With a state argument, forces that state until the next lifecycle event repaints it.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := flags.client()

			var led models.LEDData
			if len(args) == 0 {
				if err := client.call(cmd.Context(), http.MethodGet, "/api/led", nil, &led); err != nil {
					fail(err)
				}
			} else {
				body := strings.NewReader(fmt.Sprintf(`{"state":%q}`, args[0]))
				if err := client.call(cmd.Context(), http.MethodPut, "/api/led", body, &led); err != nil {
					fail(err)
				}
			}

			fmt.Printf("State:     %s\n", led.State)
			fmt.Printf("Device:    %s\n", led.Device)
			fmt.Printf("Available: %s\n", strings.Join(led.Available, ", "))
		},
	}

	flags.register(cmd)
	return cmd
}
