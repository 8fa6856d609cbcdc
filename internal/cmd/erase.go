package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/mpy-tools/mpflash/internal/config"
	"github.com/mpy-tools/mpflash/internal/flash"
)

// Erase runs the erase subcommand: wipe an ESP32 board's flash with esptool.
func Erase(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("erase", flag.ContinueOnError)
	fs.SetOutput(stderr)
	portFlag := fs.String("port", "", "Serial port (default: interactive selection)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := *portFlag
	if port == "" {
		if port, err = selectPort(); err != nil {
			return err
		}
	}

	ok, err := confirm("Erase Flash", fmt.Sprintf("This wipes the entire flash of the device on %s. Continue?", port))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("erase cancelled")
	}

	if err := flash.EraseESP32(flash.Options{Port: port, Esptool: cfg.Esptool, Log: stdout}); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Flash erase complete...")
	return nil
}
