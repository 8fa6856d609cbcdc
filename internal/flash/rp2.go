package flash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Maximum time to wait for the bootloader volume to mount after the board
// reboots (or the user presses the button sequence).
const maxDriveWait = 2 * time.Second

const bootButtonMessage = `Press and hold the "BOOT" button on your board, then press and release the "RESET" button. Finally, release the "BOOT" button and confirm below.

NOTE: You can ignore the drive popup that your OS will show.`

// flashRP2 copies the UF2 file onto the mass-storage volume the RP2
// bootloader exposes. The bootloader is entered over the REPL when possible,
// otherwise the user is asked for the BOOT+RESET button sequence.
func flashRP2(opts Options) error {
	before, err := takeMountSnapshot()
	if err != nil {
		return err
	}

	entered := false
	if opts.EnterBootloader != nil {
		entered = opts.EnterBootloader(opts.Log)
	}
	if entered {
		fmt.Fprintf(opts.Log, "Able to automatically enter bootloader mode...\n")
	} else {
		fmt.Fprintf(opts.Log, "Unable to automatically enter boot mode...\n")
		if opts.Confirm == nil {
			return fmt.Errorf("cannot enter bootloader: no way to prompt the user")
		}
		ok, err := opts.Confirm("Enter Bootloader", bootButtonMessage)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user cancelled bootloader entry, aborting upload")
		}
		fmt.Fprintf(opts.Log, "User entered bootloader button sequence. Checking for device in boot mode...\n")
	}

	mount, err := waitForNewMount(before, maxDriveWait)
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.Log, "Detected new RP2 drive: %s\n", mount)
	fmt.Fprintf(opts.Log, "Copying firmware file to RP2 device...\n")

	dest := filepath.Join(mount, filepath.Base(opts.FirmwarePath))
	if err := copyWithProgress(opts.FirmwarePath, dest, opts.Progress); err != nil {
		return fmt.Errorf("copying firmware to %s: %w", mount, err)
	}
	return nil
}

// waitForNewMount polls the mount table until a volume appears that was not
// present in the before snapshot.
func waitForNewMount(before mountSnapshot, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		cur, err := takeMountSnapshot()
		if err != nil {
			return "", err
		}
		if added := newMounts(before, cur); len(added) > 0 {
			return added[0], nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("did not detect new RP2 drive after entering bootloader mode, aborting upload")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// copyWithProgress copies src to dst in chunks, reporting percentages.
func copyWithProgress(src, dst string, progress func(int)) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	size := info.Size()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open src %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open dest %s: %w", dst, err)
	}

	buf := make([]byte, 1024*1024)
	var copied int64
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return fmt.Errorf("copy to %s: %w", dst, werr)
			}
			copied += int64(n)
			if progress != nil && size > 0 {
				progress(int(copied * 100 / size))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return fmt.Errorf("reading %s: %w", src, rerr)
		}
	}
	return out.Close()
}
