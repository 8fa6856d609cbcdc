package flash

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mpy-tools/mpflash/internal/archive"
)

// ESP32 release archives must unpack to these three images.
var esp32ArchiveFiles = []string{"bootloader.bin", "partition-table.bin", "micropython.bin"}

const defaultESP32Baud = "460800"

// flashESP32 drives esptool through the original upload sequence: probe the
// chip with flash_id, write bootloader + partition table + firmware, then
// reset the chip with a bare run command.
func flashESP32(opts Options) error {
	esptool := opts.Esptool
	if esptool == "" {
		esptool = "esptool"
	}

	dir, err := extractESP32Archive(opts.FirmwarePath, opts.TempDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Log, "Detecting flash size\n\n")
	var detector flashSizeDetector
	scan := newLineScanner(detector.feedLine)
	if err := runTool(opts.Log, scan.feed, esptool, esp32DetectArgs(opts.Port)...); err != nil {
		return fmt.Errorf("flash detection failed: %w", err)
	}
	if detector.sizeMB == 0 {
		fmt.Fprintf(opts.Log, "Flash size not detected! Defaulting to 16MB\n")
	} else {
		fmt.Fprintf(opts.Log, "Flash size is %dMB\n", detector.sizeMB)
	}

	fmt.Fprintf(opts.Log, "Uploading firmware\n")
	baud := capBaud(opts.Baud, runtime.GOOS)
	writeScan := newLineScanner(func(line string) {
		if p, ok := parseWriteProgress(line); ok {
			opts.progress(p)
		}
	})
	if err := runTool(opts.Log, writeScan.feed, esptool, esp32WriteArgs(opts.Port, baud, dir)...); err != nil {
		return fmt.Errorf("firmware upload failed: %w", err)
	}

	fmt.Fprintf(opts.Log, "Firmware upload complete. Resetting ESP32...\n")
	if err := runTool(opts.Log, nil, esptool, esp32ResetArgs(opts.Port)...); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	opts.progress(100)
	return nil
}

// EraseESP32 wipes the chip's entire flash.
func EraseESP32(opts Options) error {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	esptool := opts.Esptool
	if esptool == "" {
		esptool = "esptool"
	}
	if err := runTool(opts.Log, nil, esptool, esp32EraseArgs(opts.Port)...); err != nil {
		return fmt.Errorf("flash erase failed: %w", err)
	}
	return nil
}

// extractESP32Archive unzips the firmware archive and verifies all required
// images are present before esptool ever runs.
func extractESP32Archive(zipPath, tempDir string) (string, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", tempDir, err)
	}
	dir, err := archive.ExtractZip(zipPath, tempDir)
	if err != nil {
		return "", fmt.Errorf("provided ESP32 firmware is of wrong type: %w", err)
	}
	for _, name := range esp32ArchiveFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return "", fmt.Errorf("%s not found in esp32 firmware archive", name)
		}
	}
	return dir, nil
}

func esp32DetectArgs(port string) []string {
	return []string{
		"--chip", "esp32",
		"--port", port,
		"--before", "default_reset", "--after", "no_reset",
		"flash_id",
	}
}

func esp32WriteArgs(port, baud, dir string) []string {
	return []string{
		"--chip", "esp32",
		"--port", port,
		"--baud", baud,
		"--before", "default_reset", "--after", "hard_reset",
		"write_flash",
		"--flash_mode", "dio", "--flash_freq", "40m", "--flash_size", "4MB",
		"0x1000", filepath.Join(dir, "bootloader.bin"),
		"0x8000", filepath.Join(dir, "partition-table.bin"),
		"0x10000", filepath.Join(dir, "micropython.bin"),
	}
}

func esp32ResetArgs(port string) []string {
	return []string{
		"--chip", "esp32",
		"--port", port,
		"--before", "default_reset",
		"run",
	}
}

func esp32EraseArgs(port string) []string {
	return []string{
		"--chip", "esp32",
		"--port", port,
		"erase_flash",
	}
}

// capBaud limits the baud rate on macOS, where 921600 is known to fail.
func capBaud(baud, goos string) string {
	if baud == "" {
		return defaultESP32Baud
	}
	if baud == "921600" && goos == "darwin" {
		return "460800"
	}
	return baud
}

// flashSizeDetector picks the detected flash size out of flash_id output.
type flashSizeDetector struct {
	sizeMB int
}

func (d *flashSizeDetector) feedLine(line string) {
	const marker = "Detected flash size: "
	i := strings.Index(line, marker)
	if i < 0 {
		return
	}
	rest := strings.TrimSpace(line[i+len(marker):])
	mb, err := strconv.Atoi(strings.TrimSuffix(rest, "MB"))
	if err != nil {
		d.sizeMB = 0
		return
	}
	d.sizeMB = mb
}

// parseWriteProgress extracts the percentage from an esptool write_flash
// progress line like "Writing at 0x00010000... (42 %)". The 100% lines are
// ignored: the bootloader and partition table finish long before the
// firmware image, and the caller reports 100 itself after the reset.
func parseWriteProgress(line string) (int, bool) {
	if !strings.HasPrefix(line, "Writing at") || strings.Contains(line, "(100 %)") {
		return 0, false
	}
	open := strings.Index(line, "... (")
	if open < 0 {
		return 0, false
	}
	rest := line[open+len("... ("):]
	end := strings.Index(rest, "%")
	if end < 0 {
		return 0, false
	}
	p, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil || p <= 0 || p > 100 {
		return 0, false
	}
	return p, true
}

// lineScanner buffers raw tool output and emits complete lines. esptool
// redraws its progress line with carriage returns, so both \r and \n
// terminate a line.
type lineScanner struct {
	buf    bytes.Buffer
	onLine func(string)
}

func newLineScanner(onLine func(string)) *lineScanner {
	return &lineScanner{onLine: onLine}
}

func (s *lineScanner) feed(chunk []byte) {
	s.buf.Write(chunk)
	for {
		data := s.buf.Bytes()
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			return
		}
		line := string(data[:i])
		s.buf.Next(i + 1)
		if line != "" {
			s.onLine(line)
		}
	}
}
