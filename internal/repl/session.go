// Package repl drives a MicroPython board over its serial raw REPL.
// It covers the small surface the flasher needs: identifying the running
// board and rebooting it into its bootloader.
package repl

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/albenik/go-serial/v2"
)

const (
	ctrlA = "\x01" // enter raw REPL
	ctrlB = "\x02" // leave raw REPL
	ctrlC = "\x03" // keyboard interrupt
	ctrlD = "\x04" // end of input / soft reset
)

const defaultTimeout = 2 * time.Second

// Session is an open raw-REPL connection to a MicroPython board.
type Session struct {
	port *serial.Port
	name string
}

// Open connects to the board on the named port and switches it into raw REPL
// mode. The board must already be running MicroPython.
func Open(portName string) (*Session, error) {
	port, err := serial.Open(
		portName,
		serial.WithBaudrate(115200),
		serial.WithDataBits(8),
		serial.WithStopBits(serial.OneStopBit),
		serial.WithParity(serial.NoParity),
		serial.WithReadTimeout(100),
	)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", portName, err)
	}

	s := &Session{port: port, name: portName}

	// Interrupt any running program, then enter raw REPL.
	if _, err := port.Write([]byte("\r" + ctrlC + ctrlC)); err != nil {
		port.Close()
		return nil, fmt.Errorf("interrupting %s: %w", portName, err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := port.Write([]byte("\r" + ctrlA)); err != nil {
		port.Close()
		return nil, fmt.Errorf("entering raw REPL on %s: %w", portName, err)
	}
	if _, err := s.readUntil("raw REPL; CTRL-B to exit\r\n>", defaultTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%s: no raw REPL prompt: %w", portName, err)
	}
	return s, nil
}

// Close leaves raw REPL mode and closes the port.
func (s *Session) Close() error {
	s.port.Write([]byte(ctrlB))
	return s.port.Close()
}

// Exec runs a Python statement on the board and returns its printed output.
func (s *Session) Exec(code string) (string, error) {
	if _, err := s.port.Write([]byte(code + ctrlD)); err != nil {
		return "", fmt.Errorf("sending code: %w", err)
	}
	if _, err := s.readUntil("OK", defaultTimeout); err != nil {
		return "", fmt.Errorf("board did not accept input: %w", err)
	}

	out, err := s.readUntil(ctrlD, defaultTimeout)
	if err != nil {
		return "", fmt.Errorf("reading output: %w", err)
	}
	errOut, err := s.readUntil(ctrlD, defaultTimeout)
	if err != nil {
		return "", fmt.Errorf("reading error output: %w", err)
	}
	if errOut = strings.TrimSpace(errOut); errOut != "" {
		return "", fmt.Errorf("board error: %s", errOut)
	}
	return strings.TrimSpace(out), nil
}

// Validate checks that the connected device really runs MicroPython.
func (s *Session) Validate() error {
	out, err := s.Exec("import sys; print(sys.implementation.name)")
	if err != nil {
		return err
	}
	if out != "micropython" {
		return fmt.Errorf("device reports implementation %q, want micropython", out)
	}
	return nil
}

// BoardName returns the board's full os.uname().machine string.
func (s *Session) BoardName() (string, error) {
	return s.Exec("import os; print(os.uname().machine)")
}

// EnterBootloader reboots the board into its bootloader. The serial port
// drops as the board leaves MicroPython, so write errors after sending the
// command are expected and ignored.
func (s *Session) EnterBootloader() {
	s.port.Write([]byte("import time, machine; time.sleep_ms(100); machine.bootloader()" + ctrlD))
	time.Sleep(200 * time.Millisecond)
}

// ShortBoardName strips the " with <chip>" suffix from an os.uname().machine
// string, leaving the name that matches the manifest's micropy_hw_board_name.
func ShortBoardName(machine string) string {
	if i := strings.Index(machine, "with"); i >= 0 {
		return strings.TrimSpace(machine[:i])
	}
	return strings.TrimSpace(machine)
}

// readUntil accumulates serial input until the marker appears, returning the
// data before the marker. Read timeouts are retried until the deadline.
func (s *Session) readUntil(marker string, timeout time.Duration) (string, error) {
	var acc bytes.Buffer
	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)

	for {
		n, err := s.port.Read(buf)
		if err != nil {
			return "", err
		}
		if n > 0 {
			acc.Write(buf[:n])
			if i := bytes.Index(acc.Bytes(), []byte(marker)); i >= 0 {
				return string(acc.Bytes()[:i]), nil
			}
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("timeout waiting for %q (got %q)", marker, acc.String())
		}
	}
}
