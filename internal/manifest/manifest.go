package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed board_manifest.json
var defaultManifest []byte

// Processor identifies the flashing mechanism a board needs.
type Processor string

const (
	ProcessorRP2    Processor = "RP2"
	ProcessorESP32  Processor = "ESP32"
	ProcessorTeensy Processor = "Teensy"
)

// ParseProcessor validates a processor_type string from the manifest.
func ParseProcessor(s string) (Processor, error) {
	switch Processor(s) {
	case ProcessorRP2, ProcessorESP32, ProcessorTeensy:
		return Processor(s), nil
	}
	return "", fmt.Errorf("unknown processor type %q", s)
}

// Board is one entry of the board manifest.
type Board struct {
	DefaultFirmware string    `json:"default_fw_name"`
	Processor       Processor `json:"processor_type"`
	HWBoardName     string    `json:"micropy_hw_board_name"`
	ImageName       string    `json:"image_name"`
	Description     string    `json:"description"`
}

// Manifest is the read-only board catalog, loaded once per run.
type Manifest struct {
	boards map[string]Board
}

// Load reads a board manifest from path. An empty path loads the manifest
// embedded in the binary.
func Load(path string) (*Manifest, error) {
	data := defaultManifest
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
	}
	return parse(data)
}

func parse(data []byte) (*Manifest, error) {
	var boards map[string]Board
	if err := json.Unmarshal(data, &boards); err != nil {
		return nil, fmt.Errorf("cannot parse board manifest: %w", err)
	}
	for name, b := range boards {
		if b.DefaultFirmware == "" {
			return nil, fmt.Errorf("board %q: 'default_fw_name' is required", name)
		}
		if _, err := ParseProcessor(string(b.Processor)); err != nil {
			return nil, fmt.Errorf("board %q: %w", name, err)
		}
	}
	return &Manifest{boards: boards}, nil
}

// Devices returns all board display names, sorted.
func (m *Manifest) Devices() []string {
	names := make([]string, 0, len(m.boards))
	for name := range m.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Board looks up a board by its display name.
func (m *Manifest) Board(device string) (Board, bool) {
	b, ok := m.boards[device]
	return b, ok
}

// BoardByHWName finds the board whose MicroPython hardware name matches.
// Used by device auto-detect, which reads os.uname().machine off the board.
func (m *Manifest) BoardByHWName(hwName string) (string, Board, bool) {
	for device, b := range m.boards {
		if b.HWBoardName == hwName {
			return device, b, true
		}
	}
	return "", Board{}, false
}

// boardByFirmware finds the board whose default firmware file matches name.
func (m *Manifest) boardByFirmware(name string) (string, Board, bool) {
	for device, b := range m.boards {
		if b.DefaultFirmware == name {
			return device, b, true
		}
	}
	return "", Board{}, false
}
