package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/mpy-tools/mpflash/internal/config"
	"github.com/mpy-tools/mpflash/internal/github"
	"github.com/mpy-tools/mpflash/internal/manifest"
)

// Releases runs the releases subcommand: list the firmware releases and the
// per-device assets of the newest one.
func Releases(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("releases", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}

	client := github.NewClient(cfg.Repo)
	releases, err := client.ListReleases()
	if err != nil {
		return fmt.Errorf("fetching releases from https://github.com/%s: %w", cfg.Repo, err)
	}
	if len(releases) == 0 {
		fmt.Fprintf(stdout, "No releases found in %s.\n", cfg.Repo)
		return nil
	}

	fmt.Fprintf(stdout, "Releases of %s (newest first):\n", cfg.Repo)
	for _, rel := range releases {
		fmt.Fprintf(stdout, "  %s (%s)\n", rel.TagName, rel.PublishedAt.Format("2006-01-02"))
	}

	cat := github.NewCatalog(client, m)
	fmt.Fprintf(stdout, "\nFirmware in %s:\n", cat.CurrentRelease())
	for _, device := range cat.Devices() {
		fmt.Fprintf(stdout, "  %s\n", device)
		for _, fw := range cat.Firmware(device) {
			fmt.Fprintf(stdout, "    %-55s %8d bytes\n", fw.Name, fw.Size)
		}
	}
	return nil
}
