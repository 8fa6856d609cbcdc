package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mpy-tools/mpflash/internal/github"
	"github.com/mpy-tools/mpflash/internal/serialport"
)

// Selection list entries that are not devices or firmware files.
const (
	autoDetectOption = "Auto Detect"
	localFirmware    = "Local"
)

// selectPort prompts for one of the currently connected serial ports.
func selectPort() (string, error) {
	ports, err := serialport.List()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found — is the board connected?")
	}

	opts := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		opts = append(opts, huh.NewOption(p.Label(), p.Name))
	}

	var port string
	err = huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Serial Port").
			Options(opts...).
			Value(&port),
	)).Run()
	return port, err
}

// selectDevice prompts for a board, optionally offering auto detection.
func selectDevice(cat *github.Catalog, withAutoDetect bool) (string, error) {
	var opts []huh.Option[string]
	if withAutoDetect {
		opts = append(opts, huh.NewOption(autoDetectOption+" (board must be running MicroPython)", autoDetectOption))
	}
	for _, device := range cat.Devices() {
		opts = append(opts, huh.NewOption(device, device))
	}

	var device string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Device").
			Options(opts...).
			Value(&device),
	)).Run()
	return device, err
}

// selectFirmware prompts for one of the device's release firmware files or a
// local file. It returns the asset name, or a filesystem path for local
// files. Offline catalogs only offer the local option.
func selectFirmware(cat *github.Catalog, device string) (string, error) {
	opts := []huh.Option[string]{
		huh.NewOption("Local firmware file", localFirmware),
	}
	for _, fw := range cat.Firmware(device) {
		opts = append(opts, huh.NewOption(fw.DisplayName, fw.Name))
	}

	var choice string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Firmware").
			Options(opts...).
			Value(&choice),
	)).Run(); err != nil {
		return "", err
	}

	if choice != localFirmware {
		return choice, nil
	}

	var path string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Firmware file path").
			Description("A local .zip, .uf2 or .hex firmware file.").
			Value(&path).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("path cannot be empty")
				}
				if _, err := os.Stat(s); err != nil {
					return fmt.Errorf("file not found")
				}
				return nil
			}),
	)).Run()
	return path, err
}

// confirm shows a yes/no prompt. Used for the bootloader button sequences.
func confirm(title, message string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(message).
			Value(&ok),
	)).Run()
	return ok, err
}
