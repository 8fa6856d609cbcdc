package main

import (
	"fmt"
	"os"

	"github.com/mpy-tools/mpflash/internal/cmd"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "flash":
		if err := cmd.Flash(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "detect":
		if err := cmd.Detect(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "ports":
		if err := cmd.Ports(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "releases":
		if err := cmd.Releases(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "erase":
		if err := cmd.Erase(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "config":
		if err := cmd.Configure(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: mpflash <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  flash     Flash MicroPython firmware onto a connected board")
	fmt.Fprintln(os.Stderr, "  detect    Identify the connected board over the MicroPython REPL")
	fmt.Fprintln(os.Stderr, "  ports     List available serial ports")
	fmt.Fprintln(os.Stderr, "  releases  List firmware releases and their per-device assets")
	fmt.Fprintln(os.Stderr, "  erase     Erase the flash of a connected ESP32 board")
	fmt.Fprintln(os.Stderr, "  config    Edit the tool settings interactively")
}
