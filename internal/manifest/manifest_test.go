package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func loadDefault(t *testing.T) *Manifest {
	t.Helper()
	m, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded manifest: %v", err)
	}
	return m
}

func TestLoadEmbedded(t *testing.T) {
	m := loadDefault(t)
	if len(m.Devices()) == 0 {
		t.Fatal("embedded manifest has no boards")
	}
	b, ok := m.Board("Teensy 4.1")
	if !ok {
		t.Fatal("Teensy 4.1 missing from embedded manifest")
	}
	if b.Processor != ProcessorTeensy {
		t.Errorf("Processor = %q, want %q", b.Processor, ProcessorTeensy)
	}
	if b.DefaultFirmware != "MICROPYTHON_TEENSY41.hex" {
		t.Errorf("DefaultFirmware = %q", b.DefaultFirmware)
	}
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	os.WriteFile(path, []byte(`{
		"My Board": {
			"default_fw_name": "MICROPYTHON_MY_BOARD.uf2",
			"processor_type": "RP2",
			"micropy_hw_board_name": "My Board",
			"image_name": "my_board.png",
			"description": "test board"
		}
	}`), 0644)

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Devices(); len(got) != 1 || got[0] != "My Board" {
		t.Errorf("Devices() = %v", got)
	}
}

func TestLoadRejectsBadProcessor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	os.WriteFile(path, []byte(`{
		"My Board": {
			"default_fw_name": "fw.bin",
			"processor_type": "AVR",
			"micropy_hw_board_name": "My Board"
		}
	}`), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown processor type")
	}
}

func TestBoardByHWName(t *testing.T) {
	m := loadDefault(t)
	device, b, ok := m.BoardByHWName("SparkFun Pro Micro RP2350")
	if !ok {
		t.Fatal("hardware name lookup failed")
	}
	if device != "SparkFun Pro Micro RP2350" {
		t.Errorf("device = %q", device)
	}
	if b.Processor != ProcessorRP2 {
		t.Errorf("Processor = %q", b.Processor)
	}

	if _, _, ok := m.BoardByHWName("No Such Board"); ok {
		t.Error("lookup of unknown hardware name should fail")
	}
}
