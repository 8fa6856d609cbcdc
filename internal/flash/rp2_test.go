package flash

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestNewMounts(t *testing.T) {
	before := mountSnapshot{"/": true, "/boot": true}
	after := mountSnapshot{"/": true, "/boot": true, "/media/RPI-RP2": true}

	added := newMounts(before, after)
	if len(added) != 1 || added[0] != "/media/RPI-RP2" {
		t.Errorf("newMounts = %v, want [/media/RPI-RP2]", added)
	}

	if added := newMounts(before, before); len(added) != 0 {
		t.Errorf("unchanged mounts should yield nothing, got %v", added)
	}

	// An unmounted volume never counts as new.
	smaller := mountSnapshot{"/": true}
	if added := newMounts(before, smaller); len(added) != 0 {
		t.Errorf("removed mounts should yield nothing, got %v", added)
	}
}

func TestWaitForNewMount_Timeout(t *testing.T) {
	// With the current mount table as the baseline no new drive can appear,
	// so the wait must give up at the deadline instead of spinning forever.
	before, err := takeMountSnapshot()
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err = waitForNewMount(before, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected error when no new drive appears")
	}
	if !strings.Contains(err.Error(), "did not detect new RP2 drive") {
		t.Errorf("error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took %v, should abort shortly after the deadline", elapsed)
	}
}

func TestCopyWithProgress(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fw.uf2")
	dst := filepath.Join(dir, "out.uf2")

	content := bytes.Repeat([]byte("UF2!"), 4096)
	os.WriteFile(src, content, 0644)

	var reports []int
	if err := copyWithProgress(src, dst, func(p int) { reports = append(reports, p) }); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("copied content differs from source")
	}

	if len(reports) == 0 {
		t.Fatal("no progress was reported")
	}
	if !sort.IntsAreSorted(reports) {
		t.Errorf("progress should be monotonic: %v", reports)
	}
	if last := reports[len(reports)-1]; last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestCopyWithProgress_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := copyWithProgress(filepath.Join(dir, "nope.uf2"), filepath.Join(dir, "out.uf2"), nil)
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestFlashRP2_CancelledPrompt(t *testing.T) {
	opts := Options{
		FirmwarePath: "fw.uf2",
		Log:          new(bytes.Buffer),
		Confirm: func(title, message string) (bool, error) {
			return false, nil
		},
	}
	if err := flashRP2(opts); err == nil {
		t.Fatal("cancelled bootloader prompt should abort the upload")
	}
}
