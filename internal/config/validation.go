package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

// ValidationError is one advisory problem found by ValidateDetailed.
type ValidationError struct {
	Field      string
	Value      any
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// rule inspects one aspect of a config and returns nil when it is fine.
type rule func(c *Config) *ValidationError

var rules = []rule{
	checkModsDir,
	checkDownloadRoot,
	checkTimeout,
	checkBaseURL,
	checkCategoryRoot,
	checkMetricsPath,
}

// ValidateDetailed runs the filesystem and advisory checks, collecting
// every problem instead of stopping at the first.
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError
	for _, r := range rules {
		if ve := r(c); ve != nil {
			errs = append(errs, *ve)
		}
	}
	return errs
}

func checkModsDir(c *Config) *ValidationError {
	dir := c.Game.ModsDir
	switch {
	case dir == "":
		return &ValidationError{
			Field:      "game.mods_dir",
			Message:    "no Steam installation detected and no mods directory configured",
			Suggestion: "Point it at the game's ~mods folder:\n  mods_dir: ~/.steam/root/steamapps/common/GUILTY GEAR STRIVE/RED/Content/Paks/~mods",
		}
	case !filepath.IsAbs(dir):
		return &ValidationError{
			Field:      "game.mods_dir",
			Value:      dir,
			Message:    "must be an absolute path",
			Suggestion: "Use a full path or one starting with ~/",
		}
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		return &ValidationError{
			Field:      "game.mods_dir",
			Value:      dir,
			Message:    "exists but is not a directory",
			Suggestion: "Remove the file or choose a different path",
		}
	}
	return nil
}

// The game loads every pak under ~mods, so archives must not land there.
func checkDownloadRoot(c *Config) *ValidationError {
	dl, mods := c.General.DownloadRoot, c.Game.ModsDir
	if dl == "" || mods == "" {
		return nil
	}
	rel, err := filepath.Rel(mods, dl)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return &ValidationError{
		Field:      "general.download_root",
		Value:      dl,
		Message:    "is inside game.mods_dir; unstaged mods would still be loaded by the game",
		Suggestion: "Keep downloads under general.data_root, e.g.\n  download_root: ~/.cache/ggmod/downloads",
	}
}

func checkTimeout(c *Config) *ValidationError {
	if c.Network.TimeoutSeconds <= 3600 {
		return nil
	}
	return &ValidationError{
		Field:      "network.timeout_seconds",
		Value:      c.Network.TimeoutSeconds,
		Message:    "very long timeout (>1 hour)",
		Suggestion: "Consider reducing to 30-300 seconds",
	}
}

func checkBaseURL(c *Config) *ValidationError {
	base := strings.TrimSpace(c.Catalog.BaseURL)
	if base == "" || strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return nil
	}
	return &ValidationError{
		Field:      "catalog.base_url",
		Value:      c.Catalog.BaseURL,
		Message:    "must be an http(s) URL",
		Suggestion: "Use the default: " + DefaultBaseURL,
	}
}

func checkCategoryRoot(c *Config) *ValidationError {
	if c.Game.CategoryRoot > 0 {
		return nil
	}
	return &ValidationError{
		Field:      "game.category_root",
		Value:      c.Game.CategoryRoot,
		Message:    "must be a positive GameBanana category id",
		Suggestion: fmt.Sprintf("Use %d for the Guilty Gear -Strive- skins tree", DefaultCategoryRoot),
	}
}

func checkMetricsPath(c *Config) *ValidationError {
	if !c.Metrics.PrometheusTextfile.Enabled || c.Metrics.PrometheusTextfile.Path != "" {
		return nil
	}
	return &ValidationError{
		Field:      "metrics.prometheus_textfile.path",
		Message:    "textfile metrics enabled without a path",
		Suggestion: "Set path, e.g. /var/lib/node_exporter/textfile_collector/ggmod.prom",
	}
}

// ValidateWithFriendlyErrors runs Validate and then ValidateDetailed,
// folding every advisory problem into one UserFriendlyError.
func (c *Config) ValidateWithFriendlyErrors() error {
	if err := c.Validate(); err != nil {
		return ggerr.ConfigError("config", err.Error()).WithDetails(err)
	}
	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}
	var sb strings.Builder
	for i, ve := range errs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, ve.Error())
		if ve.Value != nil {
			fmt.Fprintf(&sb, "   current value: %v\n", ve.Value)
		}
		for _, line := range strings.Split(ve.Suggestion, "\n") {
			if line != "" {
				fmt.Fprintf(&sb, "   → %s\n", line)
			}
		}
	}
	return ggerr.NewFriendlyError(
		fmt.Sprintf("Config validation found %d problem(s)", len(errs)),
		strings.TrimRight(sb.String(), "\n"),
	).WithDocs("https://github.com/jxwalker/ggmod#configuration")
}
