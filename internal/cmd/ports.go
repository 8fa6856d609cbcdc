package cmd

import (
	"fmt"
	"io"

	"github.com/mpy-tools/mpflash/internal/serialport"
)

// Ports runs the ports subcommand: list the serial ports on the system.
func Ports(stdout io.Writer) error {
	ports, err := serialport.List()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(stdout, "No serial ports found.")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(stdout, p.Label())
	}
	return nil
}
