package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mpy-tools/mpflash/internal/config"
)

// Configure runs the config subcommand: edit the tool settings interactively
// and write them to the config file.
func Configure(stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Firmware release repository").
			Description("GitHub owner/repo firmware releases are fetched from.").
			Value(&cfg.Repo).
			Validate(func(s string) error {
				if strings.Count(strings.TrimSpace(s), "/") != 1 {
					return fmt.Errorf("expected owner/repo")
				}
				return nil
			}),
		huh.NewInput().
			Title("esptool executable").
			Value(&cfg.Esptool),
		huh.NewInput().
			Title("teensy_loader_cli executable").
			Value(&cfg.TeensyLoader),
		huh.NewInput().
			Title("esptool baud rate").
			Value(&cfg.Baud).
			Validate(func(s string) error {
				if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
					return fmt.Errorf("baud rate must be a number")
				}
				return nil
			}),
		huh.NewInput().
			Title("Board manifest override path").
			Description("Leave empty to use the built-in board manifest.").
			Value(&cfg.Manifest),
	))
	if err := form.Run(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintln(stdout, "Configuration saved.")
	return nil
}
