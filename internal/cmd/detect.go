package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/mpy-tools/mpflash/internal/config"
	"github.com/mpy-tools/mpflash/internal/manifest"
)

// Detect runs the detect subcommand: identify the connected board over the
// MicroPython REPL and report its catalog entry.
func Detect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	portFlag := fs.String("port", "", "Serial port (default: interactive selection)")
	manifestFlag := fs.String("manifest", "", "Board manifest override path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	manifestPath := *manifestFlag
	if manifestPath == "" {
		manifestPath = cfg.Manifest
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	port := *portFlag
	if port == "" {
		if port, err = selectPort(); err != nil {
			return err
		}
	}

	device, err := detectDevice(port, m, stdout)
	if err != nil {
		return fmt.Errorf("could not autodetect the board: %w", err)
	}

	b, _ := m.Board(device)
	fmt.Fprintf(stdout, "Device:           %s\n", device)
	fmt.Fprintf(stdout, "Processor:        %s\n", b.Processor)
	fmt.Fprintf(stdout, "Default firmware: %s\n", b.DefaultFirmware)
	if fw, ok := m.DefaultFirmware(device); ok {
		fmt.Fprintf(stdout, "                  %s\n", fw.Description())
	}
	if b.Description != "" {
		fmt.Fprintf(stdout, "Description:      %s\n", b.Description)
	}
	return nil
}
