package github

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mpy-tools/mpflash/internal/manifest"
)

// Catalog groups the firmware assets of the release repository by device.
// When the release listing fails the catalog runs in offline mode: the device
// list comes from the board manifest alone and no downloads are possible.
type Catalog struct {
	client   *Client
	manifest *manifest.Manifest

	offline        bool
	currentRelease string
	releases       map[string]map[string][]manifest.Firmware // tag -> device -> firmware
}

// NewCatalog fetches the release list and builds the per-device firmware
// index. A failed fetch is not an error; it yields an offline catalog.
func NewCatalog(client *Client, m *manifest.Manifest) *Catalog {
	c := &Catalog{
		client:   client,
		manifest: m,
		releases: make(map[string]map[string][]manifest.Firmware),
	}

	releases, err := client.ListReleases()
	if err != nil || len(releases) == 0 {
		c.offline = true
		return c
	}

	for _, rel := range releases {
		byDevice := make(map[string][]manifest.Firmware)
		for _, asset := range rel.Assets {
			fw := m.FirmwareFromAsset(asset.Name)
			fw.Size = asset.Size
			byDevice[fw.Device] = append(byDevice[fw.Device], fw)
		}
		c.releases[rel.TagName] = byDevice
	}
	// ListReleases sorts newest first.
	c.currentRelease = releases[0].TagName
	return c
}

// Offline reports whether the release listing failed and only local firmware
// files can be flashed.
func (c *Catalog) Offline() bool { return c.offline }

// CurrentRelease returns the release tag firmware is served from.
func (c *Catalog) CurrentRelease() string { return c.currentRelease }

// SetCurrentRelease switches the catalog to another fetched release.
func (c *Catalog) SetCurrentRelease(tag string) error {
	if _, ok := c.releases[tag]; !ok {
		return fmt.Errorf("release %q not found", tag)
	}
	c.currentRelease = tag
	return nil
}

// Devices returns the devices selectable in the current release, sorted, or
// the manifest's board list when offline.
func (c *Catalog) Devices() []string {
	if c.offline {
		return c.manifest.Devices()
	}
	byDevice := c.releases[c.currentRelease]
	devices := make([]string, 0, len(byDevice))
	for device := range byDevice {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices
}

// Firmware returns the firmware files available for a device in the current
// release. Offline catalogs have no downloadable firmware.
func (c *Catalog) Firmware(device string) []manifest.Firmware {
	if c.offline {
		return nil
	}
	return c.releases[c.currentRelease][device]
}

// BasicFirmware returns the device's full (non-minimal) firmware build: the
// asset whose name carries the plain MICROPYTHON_ prefix. Offline it falls
// back to the manifest's default firmware entry.
func (c *Catalog) BasicFirmware(device string) (manifest.Firmware, bool) {
	if c.offline {
		return c.manifest.DefaultFirmware(device)
	}
	for _, fw := range c.releases[c.currentRelease][device] {
		if manifest.IsDefaultBuild(fw.Name) {
			return fw, true
		}
	}
	return manifest.Firmware{}, false
}

// InRelease reports whether the named asset exists in the current release.
func (c *Catalog) InRelease(name string) bool {
	for _, fws := range c.releases[c.currentRelease] {
		for _, fw := range fws {
			if fw.Name == name {
				return true
			}
		}
	}
	return false
}

// Download fetches the named asset from the current release into destDir and
// returns the local path.
func (c *Catalog) Download(name, destDir string, progress func(int)) (string, error) {
	if c.offline {
		return "", fmt.Errorf("offline: cannot download firmware")
	}
	if !c.InRelease(name) {
		return "", fmt.Errorf("firmware %q not found in release %s", name, c.currentRelease)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", destDir, err)
	}

	dest := filepath.Join(destDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	if err := c.client.DownloadAsset(c.currentRelease, name, f, progress); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dest, nil
}
