// Package flash dispatches a firmware file to the flashing mechanism its
// processor family needs: esptool for ESP32, a UF2 copy onto the bootloader
// mass-storage volume for RP2, and teensy_loader_cli for Teensy 4.x.
package flash

import (
	"fmt"
	"io"

	"github.com/mpy-tools/mpflash/internal/manifest"
)

// Options carries everything an upload needs. Log receives the streamed
// output of the external tools; Progress, if set, receives percentages.
type Options struct {
	Port         string // serial port system name
	FirmwarePath string // local firmware file (.zip, .uf2, .hex)
	Device       string // board display name, e.g. "Teensy 4.1"
	FirmwareSize int64  // expected firmware size, 0 if unknown

	Baud         string // esptool baud rate
	Esptool      string // esptool executable
	TeensyLoader string // teensy_loader_cli executable
	TempDir      string // scratch dir for archive extraction

	Log      io.Writer
	Progress func(percent int)

	// Confirm asks the user to perform a manual step (press a bootloader
	// button) and reports whether they did. Required for RP2 and Teensy.
	Confirm func(title, message string) (bool, error)

	// EnterBootloader tries to reboot the board into its bootloader over the
	// REPL and reports success. Optional; when it fails or is nil the RP2
	// flow falls back to the Confirm prompt.
	EnterBootloader func(log io.Writer) bool
}

func (o *Options) progress(p int) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// Run flashes the firmware using the mechanism for the given processor.
func Run(proc manifest.Processor, opts Options) error {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	switch proc {
	case manifest.ProcessorESP32:
		return flashESP32(opts)
	case manifest.ProcessorRP2:
		return flashRP2(opts)
	case manifest.ProcessorTeensy:
		return flashTeensy(opts)
	}
	return fmt.Errorf("unsupported processor type %q", proc)
}
