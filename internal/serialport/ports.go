package serialport

import (
	"fmt"

	"github.com/albenik/go-serial/v2/enumerator"
)

// Port describes one enumerated serial port.
type Port struct {
	Name  string // system name, e.g. COM3 or /dev/ttyACM0
	IsUSB bool
	VID   string
	PID   string
}

// Vendor IDs seen on the supported boards. Used only for display.
var knownVendors = map[string]string{
	"2E8A": "Raspberry Pi",
	"16C0": "PJRC Teensy",
	"10C4": "Silicon Labs CP210x",
	"1A86": "WCH CH340",
	"0403": "FTDI",
}

// List enumerates the serial ports currently present on the system.
func List() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		ports = append(ports, Port{
			Name:  d.Name,
			IsUSB: d.IsUSB,
			VID:   d.VID,
			PID:   d.PID,
		})
	}
	return ports, nil
}

// Present reports whether the named port is still enumerable. The port list
// is re-read every call; boards drop off the bus when they reboot into their
// bootloaders.
func Present(name string) bool {
	ports, err := List()
	if err != nil {
		return false
	}
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Label renders a port for selection lists.
func (p Port) Label() string {
	if !p.IsUSB {
		return p.Name
	}
	if vendor, ok := knownVendors[p.VID]; ok {
		return fmt.Sprintf("%s (%s)", p.Name, vendor)
	}
	return fmt.Sprintf("%s (USB %s:%s)", p.Name, p.VID, p.PID)
}
