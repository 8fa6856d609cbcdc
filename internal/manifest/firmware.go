package manifest

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Firmware asset names follow the MICROPYTHON_<BOARD>.<ext> convention.
// Minimal builds carry an alternate prefix in front of it.
const boardNamePrefix = "MICROPYTHON_"

var altNamePrefixes = []string{"MINIMAL_MICROPYTHON_"}

// StripAltPrefixes normalizes a firmware asset name so it can be matched
// against the manifest's default_fw_name entries.
func StripAltPrefixes(name string) string {
	for _, prefix := range altNamePrefixes {
		name = strings.ReplaceAll(name, prefix, "")
	}
	if !strings.HasPrefix(name, boardNamePrefix) {
		name = boardNamePrefix + name
	}
	return name
}

// IsDefaultBuild reports whether an asset name is a full (non-minimal)
// firmware build, i.e. carries the plain MICROPYTHON_ prefix.
func IsDefaultBuild(name string) bool {
	return strings.HasPrefix(name, boardNamePrefix)
}

// Firmware describes one flashable firmware file, either a release asset or
// a record derived from the manifest while offline.
type Firmware struct {
	Name        string // asset filename
	DisplayName string
	HasQwiic    bool // full builds ship the Qwiic driver set
	Processor   Processor
	Device      string
	HWBoardName string
	Size        int64 // asset size in bytes, 0 if unknown
}

// FirmwareFromAsset derives a Firmware record from a release asset filename.
// The manifest is consulted first; assets that are not in the manifest fall
// back to deriving the device name from the filename and the processor from
// the file extension.
func (m *Manifest) FirmwareFromAsset(name string) Firmware {
	fw := Firmware{Name: name}

	normalized := StripAltPrefixes(name)
	if device, b, ok := m.boardByFirmware(normalized); ok {
		fw.Device = device
		fw.Processor = b.Processor
		fw.HWBoardName = b.HWBoardName
	}

	if fw.Device == "" {
		device := strings.SplitN(normalized, ".", 2)[0]
		device = strings.TrimPrefix(device, boardNamePrefix)
		fw.Device = titleCase(strings.ReplaceAll(device, "_", " "))
	}
	if fw.HWBoardName == "" {
		fw.HWBoardName = "SparkFun " + fw.Device
	}
	if fw.Processor == "" {
		fw.Processor = ProcessorForFile(name)
	}

	fw.HasQwiic = !strings.HasPrefix(name, "MINIMAL")
	fw.DisplayName = fw.Device + " Firmware"
	if fw.HasQwiic {
		fw.DisplayName += " (With Qwiic Drivers)"
	} else {
		fw.DisplayName += " (Minimal Build)"
	}
	return fw
}

// DefaultFirmware returns the Firmware record for a board's default firmware
// file. This works offline since only the manifest is consulted.
func (m *Manifest) DefaultFirmware(device string) (Firmware, bool) {
	b, ok := m.boards[device]
	if !ok {
		return Firmware{}, false
	}
	return m.FirmwareFromAsset(b.DefaultFirmware), true
}

// ProcessorForFile infers the processor family from a firmware file extension.
func ProcessorForFile(name string) Processor {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return ProcessorESP32
	case ".uf2":
		return ProcessorRP2
	case ".hex", ".elf":
		return ProcessorTeensy
	}
	return ""
}

// Description returns a short human-readable summary of the firmware build.
func (f Firmware) Description() string {
	d := "MicroPython firmware for the " + f.Device + " board. "
	if f.HasQwiic {
		return d + "It has Qwiic drivers installed."
	}
	return d + "It is a minimal build."
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
