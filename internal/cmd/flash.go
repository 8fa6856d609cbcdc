package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mpy-tools/mpflash/internal/config"
	"github.com/mpy-tools/mpflash/internal/flash"
	"github.com/mpy-tools/mpflash/internal/github"
	"github.com/mpy-tools/mpflash/internal/manifest"
	"github.com/mpy-tools/mpflash/internal/repl"
	"github.com/mpy-tools/mpflash/internal/serialport"
)

// Flash runs the flash subcommand: pick a port, device and firmware file
// (via flags or the interactive wizard), then dispatch to the flashing
// mechanism of the board's processor family.
func Flash(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("flash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	portFlag := fs.String("port", "", "Serial port to flash over (default: interactive selection)")
	deviceFlag := fs.String("device", "", "Board display name from the manifest")
	fwFlag := fs.String("firmware", "", "Local firmware file; skips the release download")
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

	cat := github.NewCatalog(github.NewClient(cfg.Repo), m)
	if cat.Offline() {
		fmt.Fprintf(stderr, "warning: could not fetch the latest firmware release — only local firmware can be flashed.\n")
		fmt.Fprintf(stderr, "Releases: https://github.com/%s/releases\n", cfg.Repo)
	}

	port := *portFlag
	if port == "" {
		if port, err = selectPort(); err != nil {
			return err
		}
	}

	device := *deviceFlag
	choice := *fwFlag
	if choice == "" {
		if device == "" {
			if device, err = selectDevice(cat, true); err != nil {
				return err
			}
			if device == autoDetectOption {
				detected, err := detectDevice(port, m, stdout)
				if err != nil {
					fmt.Fprintf(stderr, "Could not autodetect the board: %v\nPlease select a device manually.\n", err)
					if device, err = selectDevice(cat, false); err != nil {
						return err
					}
				} else {
					device = detected
				}
			}
		}
		if choice, err = selectFirmware(cat, device); err != nil {
			return err
		}
	}

	if !serialport.Present(port) {
		return fmt.Errorf("port %s no longer available", port)
	}

	tempDir, err := os.MkdirTemp("", "mpflash-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	fwPath, fwSize, err := resolveFirmware(cat, choice, tempDir, stdout)
	if err != nil {
		return err
	}

	proc := processorFor(m, device, fwPath)
	if proc == "" {
		return fmt.Errorf("cannot determine processor type for %s", fwPath)
	}
	fmt.Fprintf(stdout, "Preparing to upload %s firmware\n", proc)

	opts := flash.Options{
		Port:         port,
		FirmwarePath: fwPath,
		Device:       device,
		FirmwareSize: fwSize,
		Baud:         cfg.Baud,
		Esptool:      cfg.Esptool,
		TeensyLoader: cfg.TeensyLoader,
		TempDir:      tempDir,
		Log:          stdout,
		Progress:     progressPrinter(stdout),
		Confirm:      confirm,
		EnterBootloader: func(log io.Writer) bool {
			return enterBootloaderOverREPL(port, log)
		},
	}
	if err := flash.Run(proc, opts); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "DONE: Firmware file copied to %s device.\n", proc)
	return nil
}

// resolveFirmware turns the wizard/flag choice into a local file path. Asset
// names get downloaded from the current release into tempDir; anything that
// exists on disk is used as-is.
func resolveFirmware(cat *github.Catalog, choice, tempDir string, stdout io.Writer) (string, int64, error) {
	if _, err := os.Stat(choice); err == nil {
		info, _ := os.Stat(choice)
		return choice, info.Size(), nil
	}

	fmt.Fprintf(stdout, "Downloading selected firmware from GitHub...\n")
	path, err := cat.Download(choice, tempDir, progressPrinter(stdout))
	if err != nil {
		return "", 0, fmt.Errorf("could not download the firmware file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	return path, info.Size(), nil
}

// processorFor resolves the processor family: the manifest entry wins, the
// firmware file extension is the fallback for unknown devices and local
// files.
func processorFor(m *manifest.Manifest, device, fwPath string) manifest.Processor {
	if b, ok := m.Board(device); ok {
		return b.Processor
	}
	return manifest.ProcessorForFile(fwPath)
}

// detectDevice connects to the board over the raw REPL and matches its
// reported hardware name against the manifest.
func detectDevice(port string, m *manifest.Manifest, stdout io.Writer) (string, error) {
	sess, err := repl.Open(port)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	if err := sess.Validate(); err != nil {
		return "", err
	}
	name, err := sess.BoardName()
	if err != nil {
		return "", err
	}
	short := repl.ShortBoardName(name)
	fmt.Fprintf(stdout, "Identified connected board: %s\n", short)

	device, _, ok := m.BoardByHWName(short)
	if !ok {
		return "", fmt.Errorf("no board in the manifest matches %q", short)
	}
	return device, nil
}

// enterBootloaderOverREPL tries to reboot a MicroPython board into its
// bootloader. Returns false when the board is not reachable over the REPL,
// in which case the caller falls back to the manual button sequence.
func enterBootloaderOverREPL(port string, log io.Writer) bool {
	sess, err := repl.Open(port)
	if err != nil {
		return false
	}
	if err := sess.Validate(); err != nil {
		sess.Close()
		return false
	}
	fmt.Fprintf(log, "REPL session validated.\n")
	fmt.Fprintf(log, "Entering bootloader mode...\n")
	sess.EnterBootloader()
	sess.Close()
	return true
}

// progressPrinter renders percentages on a single redrawn line.
func progressPrinter(w io.Writer) func(int) {
	last := -1
	return func(p int) {
		if p == last {
			return
		}
		last = p
		fmt.Fprintf(w, "\rProgress: %3d%%", p)
		if p >= 100 {
			fmt.Fprintln(w)
		}
	}
}
