package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Repo != "sparkfun/micropython" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.Baud != "460800" {
		t.Errorf("Baud = %q", cfg.Baud)
	}
	if cfg.Esptool != "esptool" {
		t.Errorf("Esptool = %q", cfg.Esptool)
	}
	if cfg.TeensyLoader != "teensy_loader_cli" {
		t.Errorf("TeensyLoader = %q", cfg.TeensyLoader)
	}
}

func TestLoadFrom_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("repo: myfork/micropython\nbaud: \"115200\"\nesptool: /opt/esptool/esptool\n"), 0644)

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Repo != "myfork/micropython" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.Baud != "115200" {
		t.Errorf("Baud = %q", cfg.Baud)
	}
	if cfg.Esptool != "/opt/esptool/esptool" {
		t.Errorf("Esptool = %q", cfg.Esptool)
	}
	// Unset fields still get defaults
	if cfg.TeensyLoader != "teensy_loader_cli" {
		t.Errorf("TeensyLoader = %q", cfg.TeensyLoader)
	}
}

func TestLoadFrom_EnvOverridesRepo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("repo: myfork/micropython\n"), 0644)

	t.Setenv("MPFLASH_REPO", "other/micropython")
	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Repo != "other/micropython" {
		t.Errorf("Repo = %q, want env override", cfg.Repo)
	}
}

func TestLoadFrom_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("repo: [unclosed"), 0644)

	if _, err := loadFrom(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
