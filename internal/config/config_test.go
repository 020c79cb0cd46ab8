package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFillsDefaults(t *testing.T) {
	tmp := t.TempDir()
	p := writeConfig(t, "version: 1\n"+
		"general:\n"+
		"  data_root: \""+tmp+"/data\"\n"+
		"game:\n"+
		"  mods_dir: \""+tmp+"/mods\"\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.General.DownloadRoot != filepath.Join(tmp, "data", "downloads") {
		t.Errorf("download_root = %q", c.General.DownloadRoot)
	}
	if c.Game.ID != DefaultGameID || c.Game.CategoryRoot != DefaultCategoryRoot {
		t.Errorf("game defaults not applied: %+v", c.Game)
	}
	if c.Catalog.BaseURL != DefaultBaseURL || c.Catalog.PerPage != DefaultPerPage {
		t.Errorf("catalog defaults not applied: %+v", c.Catalog)
	}
	if c.RegistryPath() != filepath.Join(tmp, "data", "registry.json") {
		t.Errorf("registry path = %q", c.RegistryPath())
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("GGMOD_TEST_ROOT", tmp)
	p := writeConfig(t, "version: 1\n"+
		"general:\n"+
		"  data_root: ${GGMOD_TEST_ROOT}/data\n"+
		"game:\n"+
		"  mods_dir: ${GGMOD_TEST_ROOT}/mods\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.General.DataRoot != tmp+"/data" {
		t.Errorf("data_root = %q", c.General.DataRoot)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"version", "version: 2\n", "unsupported config version"},
		{"per page", "version: 1\ncatalog:\n  per_page: 500\n", "per_page"},
		{"log level", "version: 1\nlogging:\n  level: loud\n", "logging.level"},
		{"log format", "version: 1\nlogging:\n  format: xml\n", "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateDetailedModsDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	c := Default()
	c.General.DataRoot = tmp

	c.Game.ModsDir = ""
	if errs := c.ValidateDetailed(); len(errs) != 1 || errs[0].Field != "game.mods_dir" {
		t.Fatalf("empty mods_dir: got %+v", errs)
	}
	c.Game.ModsDir = "relative/mods"
	if errs := c.ValidateDetailed(); len(errs) != 1 {
		t.Fatalf("relative mods_dir: got %+v", errs)
	}
	c.Game.ModsDir = file
	if errs := c.ValidateDetailed(); len(errs) != 1 || !strings.Contains(errs[0].Message, "not a directory") {
		t.Fatalf("file mods_dir: got %+v", errs)
	}
	c.Game.ModsDir = filepath.Join(tmp, "mods")
	if errs := c.ValidateDetailed(); len(errs) != 0 {
		t.Fatalf("valid config reported problems: %+v", errs)
	}
	if err := c.ValidateWithFriendlyErrors(); err != nil {
		t.Fatalf("ValidateWithFriendlyErrors: %v", err)
	}
}

func TestValidateDetailedDownloadRootInsideMods(t *testing.T) {
	tmp := t.TempDir()
	c := Default()
	c.General.DataRoot = tmp
	c.Game.ModsDir = filepath.Join(tmp, "mods")
	c.General.DownloadRoot = filepath.Join(tmp, "mods", "downloads")
	errs := c.ValidateDetailed()
	if len(errs) != 1 || errs[0].Field != "general.download_root" {
		t.Fatalf("got %+v", errs)
	}
	err := c.ValidateWithFriendlyErrors()
	if err == nil || !strings.Contains(err.Error(), "general.download_root") {
		t.Fatalf("friendly error should name the field, got %v", err)
	}

	c.General.DownloadRoot = filepath.Join(tmp, "modsextra")
	if errs := c.ValidateDetailed(); len(errs) != 0 {
		t.Fatalf("sibling directory flagged: %+v", errs)
	}
}
