package flash

import (
	"fmt"
	"io"
	"os/exec"
)

// runTool executes an external flashing tool, streaming stdout and stderr to
// log as they arrive. parse, if not nil, receives every raw output chunk so
// callers can track tool-specific progress markers.
func runTool(log io.Writer, parse func([]byte), name string, args ...string) error {
	cmd := exec.Command(name, args...)

	out := log
	if parse != nil {
		out = io.MultiWriter(log, writerFunc(parse))
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type writerFunc func([]byte)

func (f writerFunc) Write(p []byte) (int, error) {
	f(p)
	return len(p), nil
}
