package flash

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/marcinbor85/gohex"
)

// teensy_loader_cli prints one dot per 1024-byte block it programs.
const teensyBlockSize = 1024

const teensyResetMessage = `Press the reset button on your Teensy board, then confirm below.`

// flashTeensy shells out to teensy_loader_cli with the HalfKay bootloader
// doing the actual work. Progress is derived from the dots the tool prints
// while programming.
func flashTeensy(opts Options) error {
	loader := opts.TeensyLoader
	if loader == "" {
		loader = "teensy_loader_cli"
	}

	if opts.Confirm == nil {
		return fmt.Errorf("cannot enter bootloader: no way to prompt the user")
	}
	ok, err := opts.Confirm("Enter Bootloader", teensyResetMessage)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user cancelled bootloader entry, aborting upload")
	}
	fmt.Fprintf(opts.Log, "User entered bootloader button. Attempting to write firmware...\n")

	size := opts.FirmwareSize
	if payload, err := hexPayloadSize(opts.FirmwarePath); err == nil {
		size = payload
	}

	tracker := newTeensyProgress(size)
	args := []string{
		"--mcu=imxrt1062",
		"-v", "-w",
		teensyBoardID(opts.Device),
		opts.FirmwarePath,
	}
	err = runTool(opts.Log, func(chunk []byte) {
		if p := tracker.feed(chunk); p > 0 && p < 100 {
			opts.progress(p)
		}
	}, loader, args...)
	if err != nil {
		return fmt.Errorf("teensy upload failed: %w", err)
	}
	opts.progress(100)
	fmt.Fprintf(opts.Log, "\nTeensy Upload Done.\n")
	return nil
}

// teensyBoardID maps a device display name to teensy_loader_cli's board tag.
func teensyBoardID(device string) string {
	if device == "Teensy 4.1" {
		return "TEENSY41"
	}
	return "TEENSY40"
}

// hexPayloadSize parses an Intel HEX firmware file and returns the number of
// payload bytes it programs. That is the size the dot count is proportional
// to; the on-disk .hex file is roughly 2.8x larger than its payload.
func hexPayloadSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	var size int64
	for _, seg := range mem.GetDataSegments() {
		size += int64(len(seg.Data))
	}
	return size, nil
}

// teensyProgress converts teensy_loader_cli output into a percentage. Once
// the "Programming" banner appears, every printed dot stands for one written
// block of the firmware payload.
type teensyProgress struct {
	size        int64
	programming bool
	dots        int
	pending     bytes.Buffer
}

func newTeensyProgress(size int64) *teensyProgress {
	return &teensyProgress{size: size}
}

func (t *teensyProgress) feed(chunk []byte) int {
	t.pending.Write(chunk)
	msg := t.pending.String()

	if !t.programming {
		i := strings.Index(msg, "Programming")
		if i < 0 {
			// Keep a tail in case "Programming" is split across chunks.
			if t.pending.Len() > len("Programming") {
				tail := msg[len(msg)-len("Programming"):]
				t.pending.Reset()
				t.pending.WriteString(tail)
			}
			return 0
		}
		t.programming = true
		t.dots = 0
		msg = msg[i+len("Programming"):]
	}

	t.dots += strings.Count(msg, ".")
	t.pending.Reset()
	return t.percent()
}

func (t *teensyProgress) percent() int {
	if t.size == 0 {
		return 0
	}
	return int(int64(t.dots) * teensyBlockSize * 100 / t.size)
}
