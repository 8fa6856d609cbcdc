package flash

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestESP32Args(t *testing.T) {
	detect := esp32DetectArgs("/dev/ttyUSB0")
	want := "--chip esp32 --port /dev/ttyUSB0 --before default_reset --after no_reset flash_id"
	if got := strings.Join(detect, " "); got != want {
		t.Errorf("detect args = %q, want %q", got, want)
	}

	write := strings.Join(esp32WriteArgs("/dev/ttyUSB0", "460800", "/tmp/fw"), " ")
	for _, part := range []string{
		"write_flash",
		"--flash_mode dio --flash_freq 40m --flash_size 4MB",
		"0x1000 " + filepath.Join("/tmp/fw", "bootloader.bin"),
		"0x8000 " + filepath.Join("/tmp/fw", "partition-table.bin"),
		"0x10000 " + filepath.Join("/tmp/fw", "micropython.bin"),
	} {
		if !strings.Contains(write, part) {
			t.Errorf("write args missing %q: %q", part, write)
		}
	}

	reset := strings.Join(esp32ResetArgs("COM3"), " ")
	if reset != "--chip esp32 --port COM3 --before default_reset run" {
		t.Errorf("reset args = %q", reset)
	}

	erase := strings.Join(esp32EraseArgs("COM3"), " ")
	if erase != "--chip esp32 --port COM3 erase_flash" {
		t.Errorf("erase args = %q", erase)
	}
}

func TestCapBaud(t *testing.T) {
	cases := []struct {
		baud, goos, want string
	}{
		{"", "linux", "460800"},
		{"921600", "darwin", "460800"},
		{"921600", "linux", "921600"},
		{"115200", "darwin", "115200"},
	}
	for _, c := range cases {
		if got := capBaud(c.baud, c.goos); got != c.want {
			t.Errorf("capBaud(%q, %q) = %q, want %q", c.baud, c.goos, got, c.want)
		}
	}
}

func TestParseWriteProgress(t *testing.T) {
	cases := []struct {
		line string
		want int
		ok   bool
	}{
		{"Writing at 0x00010000... (42 %)", 42, true},
		{"Writing at 0x0000f000... (3 %)", 3, true},
		{"Writing at 0x00001000... (100 %)", 0, false},
		{"Wrote 1474560 bytes", 0, false},
		{"Writing at 0x00010000...", 0, false},
	}
	for _, c := range cases {
		got, ok := parseWriteProgress(c.line)
		if got != c.want || ok != c.ok {
			t.Errorf("parseWriteProgress(%q) = (%d, %v), want (%d, %v)", c.line, got, ok, c.want, c.ok)
		}
	}
}

func TestFlashSizeDetector(t *testing.T) {
	var d flashSizeDetector
	d.feedLine("Manufacturer: ef")
	d.feedLine("Detected flash size: 8MB")
	if d.sizeMB != 8 {
		t.Errorf("sizeMB = %d, want 8", d.sizeMB)
	}

	// An unparsable size resets the detection, as the original treated any
	// other "Detected flash size:" line as unknown.
	d.feedLine("Detected flash size: unknown")
	if d.sizeMB != 0 {
		t.Errorf("sizeMB = %d, want 0 after unknown size", d.sizeMB)
	}
}

func TestLineScanner_SplitsOnCRAndLF(t *testing.T) {
	var lines []string
	s := newLineScanner(func(line string) { lines = append(lines, line) })

	s.feed([]byte("Connecting...\nWriting at 0x1000... (5 %)\rWriting at"))
	s.feed([]byte(" 0x2000... (10 %)\r"))

	want := []string{"Connecting...", "Writing at 0x1000... (5 %)", "Writing at 0x2000... (10 %)"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %q, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestExtractESP32Archive_RequiresImages(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "fw.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"fw/bootloader.bin", "fw/partition-table.bin"} {
		w, _ := zw.Create(name)
		w.Write([]byte("x"))
	}
	zw.Close()
	f.Close()

	// micropython.bin is missing
	if _, err := extractESP32Archive(zipPath, t.TempDir()); err == nil {
		t.Fatal("expected error for archive missing micropython.bin")
	} else if !strings.Contains(err.Error(), "micropython.bin") {
		t.Errorf("error should name the missing file, got: %v", err)
	}
}
