package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jxwalker/ggmod/internal/config"
	"github.com/jxwalker/ggmod/internal/placer"
	"github.com/jxwalker/ggmod/internal/registry"
	"github.com/jxwalker/ggmod/internal/state"
	"github.com/jxwalker/ggmod/internal/system"
)

// Check represents a single diagnostic check
type Check struct {
	Name        string
	Run         func(ctx context.Context) CheckResult
	Critical    bool // If true, failure suggests ggmod won't work
	Description string
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
}

// lowSpace is the free space below which the download root gets a warning.
const lowSpace = 2 << 30

func newDoctorCmd(a *app) *cobra.Command {
	var verbose, offline bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration, directories, registry drift and connectivity",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output for each check")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the catalog connectivity check")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, cfgErr := a.loadConfig()
		checks := doctorChecks(a, cfg, cfgErr, offline)
		return runChecks(cmd, checks, verbose)
	}
	return cmd
}

func doctorChecks(a *app, cfg *config.Config, cfgErr error, offline bool) []Check {
	noConfig := CheckResult{Passed: false, Message: "Config not loaded"}
	checks := []Check{
		{
			Name:        "Config file",
			Critical:    true,
			Description: "Configuration loads and validates",
			Run: func(ctx context.Context) CheckResult {
				if cfgErr != nil {
					return CheckResult{
						Passed:     false,
						Message:    "Config could not be loaded",
						Suggestion: fmt.Sprintf("%v\n\nRun 'ggmod config validate' for details", cfgErr),
					}
				}
				if a.cfgPath == "" {
					return CheckResult{
						Passed:     true,
						Warning:    true,
						Message:    "No config file; using built-in defaults",
						Suggestion: fmt.Sprintf("Create %s or set GGMOD_CONFIG to customise paths", defaultConfigPath()),
					}
				}
				if err := cfg.ValidateWithFriendlyErrors(); err != nil {
					return CheckResult{Passed: false, Message: "Config is invalid", Suggestion: err.Error()}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Found: %s", a.cfgPath)}
			},
		},
		{
			Name:        "Data directory is writable",
			Critical:    true,
			Description: "registry.json, state.db and caches live here",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				return writableDir(cfg.General.DataRoot)
			},
		},
		{
			Name:        "Download directory has space",
			Critical:    false,
			Description: "Archives are downloaded and extracted here",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				if res := writableDir(cfg.General.DownloadRoot); !res.Passed {
					return res
				}
				ok, free, err := system.HasRoomFor(cfg.General.DownloadRoot, lowSpace)
				if err != nil {
					return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Could not measure free space: %v", err)}
				}
				size, _, _ := system.DirSize(cfg.General.DownloadRoot)
				msg := fmt.Sprintf("%s free, %s cached", humanize.Bytes(free), humanize.Bytes(uint64(size)))
				if !ok {
					return CheckResult{
						Passed:     true,
						Warning:    true,
						Message:    "Low disk space: " + msg,
						Suggestion: "Remove unused mods with 'ggmod remove <id>' or point general.download_root elsewhere",
					}
				}
				return CheckResult{Passed: true, Message: msg}
			},
		},
		{
			Name:        "Mods directory",
			Critical:    true,
			Description: "Staged mods are copied into the game's ~mods directory",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				if cfg.Game.ModsDir == "" {
					return CheckResult{
						Passed:     false,
						Message:    "game.mods_dir is not set and no Steam install was found",
						Suggestion: "Set game.mods_dir to .../GUILTY GEAR STRIVE/RED/Content/Paks/~mods",
					}
				}
				if _, err := os.Stat(cfg.Game.ModsDir); err != nil {
					return CheckResult{
						Passed:     true,
						Warning:    true,
						Message:    fmt.Sprintf("Does not exist yet: %s", cfg.Game.ModsDir),
						Suggestion: "It is created on the first install; check the path points into the game",
					}
				}
				return CheckResult{Passed: true, Message: cfg.Game.ModsDir}
			},
		},
		{
			Name:        "State database",
			Critical:    true,
			Description: "Fetch ledger used by downloads",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				db, err := state.Open(cfg)
				if err != nil {
					return CheckResult{
						Passed:     false,
						Message:    fmt.Sprintf("Cannot open database: %v", err),
						Suggestion: "Check that data_root is writable and the database is not corrupted",
					}
				}
				defer db.Close()
				return CheckResult{Passed: true, Message: fmt.Sprintf("Database OK: %s", db.Path)}
			},
		},
		{
			Name:        "Registry matches disk",
			Critical:    false,
			Description: "Staged flags agree with the mods directory and downloads exist",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				return registryDrift(cfg)
			},
		},
		{
			Name:        "Proxy settings",
			Critical:    false,
			Description: "Proxies applied to catalog requests",
			Run: func(ctx context.Context) CheckResult {
				proxies := system.ProxySettings()
				if len(proxies) == 0 {
					return CheckResult{Passed: true, Message: "No proxy configured"}
				}
				keys := make([]string, 0, len(proxies))
				for k := range proxies {
					keys = append(keys, k+"="+proxies[k])
				}
				sort.Strings(keys)
				return CheckResult{Passed: true, Message: strings.Join(keys, " ")}
			},
		},
		{
			Name:        "Orphaned .part files",
			Critical:    false,
			Description: "Incomplete downloads from previous sessions",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				partCount := 0
				_ = filepath.WalkDir(cfg.General.DownloadRoot, func(path string, d fs.DirEntry, err error) error {
					if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), ".part") {
						partCount++
					}
					return nil
				})
				if partCount == 0 {
					return CheckResult{Passed: true, Message: "No orphaned .part files"}
				}
				return CheckResult{
					Passed:     true,
					Warning:    true,
					Message:    fmt.Sprintf("Found %d .part file(s)", partCount),
					Suggestion: fmt.Sprintf("They are safe to delete:\n  find %s -name '*.part' -delete", cfg.General.DownloadRoot),
				}
			},
		},
	}
	if !offline {
		checks = append(checks, Check{
			Name:        "Catalog reachable",
			Critical:    true,
			Description: "Network access to the mod catalog",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return noConfig
				}
				if err := system.CheckCatalogReachable(ctx, cfg.Catalog.BaseURL); err != nil {
					return CheckResult{Passed: false, Message: "Network check failed", Suggestion: err.Error()}
				}
				return CheckResult{Passed: true, Message: cfg.Catalog.BaseURL + " accessible"}
			},
		})
	}
	return checks
}

func writableDir(dir string) CheckResult {
	if dir == "" {
		return CheckResult{Passed: false, Message: "Directory not set in config"}
	}
	if err := config.EnsureDir(dir, 0o755); err != nil {
		return CheckResult{
			Passed:     false,
			Message:    fmt.Sprintf("Directory doesn't exist and can't be created: %s", dir),
			Suggestion: fmt.Sprintf("Create manually: mkdir -p %s", dir),
		}
	}
	f, err := os.CreateTemp(dir, ".ggmod-doctor-*")
	if err != nil {
		return CheckResult{
			Passed:     false,
			Message:    fmt.Sprintf("Directory is not writable: %s", dir),
			Suggestion: fmt.Sprintf("Fix permissions: chmod u+w %s", dir),
		}
	}
	f.Close()
	_ = os.Remove(f.Name())
	return CheckResult{Passed: true, Message: dir}
}

// registryDrift compares the registry's staged flags with the numeric
// directories actually present in the mods directory.
func registryDrift(cfg *config.Config) CheckResult {
	recs, err := registry.New(cfg.RegistryPath()).Load()
	if err != nil {
		return CheckResult{
			Passed:     false,
			Message:    fmt.Sprintf("Registry unreadable: %v", err),
			Suggestion: fmt.Sprintf("Inspect or move aside %s", cfg.RegistryPath()),
		}
	}
	p := placer.New(cfg.Game.ModsDir)
	onDisk, err := p.StagedIDs()
	if err != nil {
		return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Cannot list mods directory: %v", err)}
	}
	var problems []string
	for _, r := range recs {
		present := p.IsStaged(r.ID)
		switch {
		case r.Staged && !present:
			problems = append(problems, fmt.Sprintf("%d is marked staged but %s is missing (run 'ggmod uninstall %d' then 'ggmod install %d')", r.ID, filepath.Join(cfg.Game.ModsDir, fmt.Sprint(r.ID)), r.ID, r.ID))
		case !r.Staged && present:
			problems = append(problems, fmt.Sprintf("%d is unstaged but present in the mods directory (run 'ggmod install %d')", r.ID, r.ID))
		}
		if _, err := os.Stat(r.Path); err != nil {
			problems = append(problems, fmt.Sprintf("%d content missing at %s (run 'ggmod remove %d' and download again)", r.ID, r.Path, r.ID))
		}
	}
	if len(problems) == 0 {
		return CheckResult{Passed: true, Message: fmt.Sprintf("%d mods, %d staged directories", len(recs), len(onDisk))}
	}
	return CheckResult{
		Passed:     true,
		Warning:    true,
		Message:    fmt.Sprintf("%d problem(s) in %d mods", len(problems), len(recs)),
		Suggestion: strings.Join(problems, "\n"),
	}
}

func runChecks(cmd *cobra.Command, checks []Check, verbose bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running ggmod diagnostics...")
	fmt.Fprintln(out)

	passedCount, failedCount, warningCount := 0, 0, 0
	for _, check := range checks {
		if verbose {
			fmt.Fprintf(out, "Checking: %s\n", check.Description)
		}
		start := time.Now()
		result := check.Run(cmd.Context())
		duration := time.Since(start)

		symbol := "✓"
		switch {
		case !result.Passed && !check.Critical:
			symbol = "⚠"
			warningCount++
		case !result.Passed:
			symbol = "✗"
			failedCount++
		case result.Warning:
			symbol = "⚠"
			warningCount++
			passedCount++
		default:
			passedCount++
		}

		fmt.Fprintf(out, "%s %s", symbol, check.Name)
		if verbose {
			fmt.Fprintf(out, " (%.2fs)", duration.Seconds())
		}
		fmt.Fprintln(out)
		if result.Message != "" {
			fmt.Fprintf(out, "  %s\n", result.Message)
		}
		if result.Suggestion != "" {
			for _, line := range strings.Split(result.Suggestion, "\n") {
				fmt.Fprintf(out, "  → %s\n", line)
			}
		}
		if verbose || !result.Passed || result.Warning {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintf(out, "\nDiagnostic Summary:\n")
	fmt.Fprintf(out, "  Total checks: %d\n", len(checks))
	fmt.Fprintf(out, "  Passed:       %d\n", passedCount)
	fmt.Fprintf(out, "  Warnings:     %d\n", warningCount)
	fmt.Fprintf(out, "  Failed:       %d\n", failedCount)

	if failedCount > 0 {
		fmt.Fprintln(out, "\n⚠ Some critical checks failed. ggmod may not work correctly.")
		return fmt.Errorf("%d checks failed", failedCount)
	}
	if warningCount > 0 {
		fmt.Fprintln(out, "\n⚠ Some checks have warnings. ggmod will work but some features may be limited.")
	} else {
		fmt.Fprintln(out, "\n✓ All checks passed! ggmod is ready to use.")
	}
	return nil
}
