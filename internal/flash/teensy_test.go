package flash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTeensyBoardID(t *testing.T) {
	if got := teensyBoardID("Teensy 4.1"); got != "TEENSY41" {
		t.Errorf("teensyBoardID(Teensy 4.1) = %q", got)
	}
	if got := teensyBoardID("Teensy 4.0"); got != "TEENSY40" {
		t.Errorf("teensyBoardID(Teensy 4.0) = %q", got)
	}
}

func TestTeensyProgress(t *testing.T) {
	// 10 blocks of firmware: every dot is 10%.
	p := newTeensyProgress(10 * teensyBlockSize)

	if got := p.feed([]byte("Teensy Loader, Command Line\n")); got != 0 {
		t.Errorf("progress before Programming banner = %d", got)
	}
	if got := p.feed([]byte("Programming...")); got != 30 {
		t.Errorf("progress after 3 dots = %d, want 30", got)
	}
	if got := p.feed([]byte("....")); got != 70 {
		t.Errorf("progress after 7 dots = %d, want 70", got)
	}
}

func TestTeensyProgress_BannerSplitAcrossChunks(t *testing.T) {
	p := newTeensyProgress(4 * teensyBlockSize)
	p.feed([]byte("Progr"))
	if got := p.feed([]byte("amming..")); got != 50 {
		t.Errorf("progress = %d, want 50", got)
	}
}

func TestTeensyProgress_ZeroSize(t *testing.T) {
	p := newTeensyProgress(0)
	if got := p.feed([]byte("Programming....")); got != 0 {
		t.Errorf("progress with unknown size = %d, want 0", got)
	}
}

func TestHexPayloadSize(t *testing.T) {
	// One 16-byte data record at 0x0100.
	hex := ":10010000214601360121470136007EFE09D2190140\n:00000001FF\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.hex")
	os.WriteFile(path, []byte(hex), 0644)

	size, err := hexPayloadSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != 16 {
		t.Errorf("payload size = %d, want 16", size)
	}
}

func TestHexPayloadSize_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.hex")
	os.WriteFile(path, []byte("not a hex file"), 0644)

	if _, err := hexPayloadSize(path); err == nil {
		t.Fatal("expected error for invalid hex file")
	}
}
