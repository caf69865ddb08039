package button

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const gpioBase = "/sys/class/gpio"

// exportGPIO makes the pin visible in sysfs and configures it as an
// input. Pins already exported by the device tree are left alone.
func exportGPIO(pin int) error {
	pinDir := filepath.Join(gpioBase, fmt.Sprintf("gpio%d", pin))

	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		exportPath := filepath.Join(gpioBase, "export")
		if err := os.WriteFile(exportPath, []byte(strconv.Itoa(pin)), 0644); err != nil {
			return fmt.Errorf("failed to export gpio%d: %w", pin, err)
		}
	}

	directionPath := filepath.Join(pinDir, "direction")
	if err := os.WriteFile(directionPath, []byte("in"), 0644); err != nil {
		return fmt.Errorf("failed to set gpio%d direction: %w", pin, err)
	}
	return nil
}

// readPressed reads the pin's value file. The button pulls the line low,
// so "0" means pressed.
func readPressed(pin int) (bool, error) {
	valuePath := filepath.Join(gpioBase, fmt.Sprintf("gpio%d", pin), "value")
	data, err := os.ReadFile(valuePath)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(data)) == "0", nil
}
