package flash

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// mountSnapshot is the set of mounted filesystem paths at one point in time.
type mountSnapshot map[string]bool

func takeMountSnapshot() (mountSnapshot, error) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("listing disk partitions: %w", err)
	}
	snap := make(mountSnapshot, len(parts))
	for _, p := range parts {
		snap[p.Mountpoint] = true
	}
	return snap, nil
}

// newMounts returns mount points present in cur but not in old. The RP2
// bootloader volume shows up as exactly such a new mount.
func newMounts(old, cur mountSnapshot) []string {
	var added []string
	for mp := range cur {
		if !old[mp] {
			added = append(added, mp)
		}
	}
	return added
}
