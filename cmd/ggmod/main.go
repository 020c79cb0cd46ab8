package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/collection"
	"github.com/jxwalker/ggmod/internal/config"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/metrics"
	"github.com/jxwalker/ggmod/internal/placer"
	"github.com/jxwalker/ggmod/internal/registry"
	"github.com/jxwalker/ggmod/internal/state"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", ggerr.Friendly(err))
		os.Exit(1)
	}
}

// app carries what every command shares. Fields past the writers are filled
// lazily by open and client.
type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfgPath string
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Manager
	st      *state.DB
	cat     *catalog.Client

	// terminal reports whether stdin and stdout are a TTY.
	terminal func() bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("GGMOD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{v: v, stdin: in, stdout: out, stderr: errOut, terminal: stdioIsTerminal}
}

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ggmod",
		Short: "Browse GameBanana and manage GUILTY GEAR -STRIVE- mods",
		Long: `ggmod keeps a local collection of GGST mods from GameBanana. Mods are
registered by downloading one of their files, then staged into the game's
~mods directory or unstaged again without losing the download.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to YAML config file (or GGMOD_CONFIG; default ~/.config/ggmod/config.yml)")
	pf.String("log-level", "", "Log level: debug|info|warn|error (default from config)")
	pf.Bool("log-json", false, "JSON log output")
	_ = a.v.BindPFlag("config", pf.Lookup("config"))
	_ = a.v.BindPFlag("log-level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log-json", pf.Lookup("log-json"))

	root.AddCommand(
		newListCmd(a),
		newDownloadCmd(a),
		newStagingCmd(a, "install", "Stage a registered mod into the mods directory", (*collection.Collection).Stage),
		newStagingCmd(a, "uninstall", "Remove a mod from the mods directory, keeping its download", (*collection.Collection).Unstage),
		newStagingCmd(a, "toggle", "Stage an unstaged mod or unstage a staged one", (*collection.Collection).Toggle),
		newRemoveCmd(a),
		newSearchCmd(a),
		newCategoriesCmd(a),
		newStatusCmd(a),
		newDoctorCmd(a),
		newTUICmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

func defaultConfigPath() string {
	h, err := os.UserHomeDir()
	if err != nil || h == "" {
		return ""
	}
	return filepath.Join(h, ".config", "ggmod", "config.yml")
}

// loadConfig resolves the config path (flag, GGMOD_CONFIG, default file) and
// falls back to built-in defaults when no file was asked for and none exists.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	path := a.v.GetString("config")
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); path == "" || err != nil {
			a.cfg = config.Default()
			return a.cfg, nil
		}
	}
	c, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ggerr.PathError(path, err)
		}
		return nil, ggerr.NewFriendlyError("Config could not be loaded: "+path, err.Error()+"\n\nRun 'ggmod config validate' for details").WithDetails(err)
	}
	a.cfgPath = path
	a.cfg = c
	return c, nil
}

// open loads the config and sets up logging and metrics.
func (a *app) open() error {
	if a.log != nil {
		return nil
	}
	c, err := a.loadConfig()
	if err != nil {
		return err
	}
	level := a.v.GetString("log-level")
	if level == "" {
		level = c.Logging.Level
	}
	jsonOut := a.v.GetBool("log-json") || strings.EqualFold(c.Logging.Format, "json")
	a.log = logging.NewWithWriter(a.stderr, level, jsonOut)
	a.metrics = metrics.New(c)
	catalog.Version = version
	return nil
}

// client returns the catalog client, opening the fetch ledger on first use.
func (a *app) client() (*catalog.Client, error) {
	if a.cat != nil {
		return a.cat, nil
	}
	if err := a.open(); err != nil {
		return nil, err
	}
	st, err := state.Open(a.cfg)
	if err != nil {
		return nil, ggerr.E("open state db", ggerr.KindIO, err)
	}
	a.st = st
	a.cat = catalog.New(a.cfg, a.log, st, a.metrics)
	return a.cat, nil
}

// collection loads the registry with the configured mods directory.
func (a *app) collection() (*collection.Collection, error) {
	cl, err := a.client()
	if err != nil {
		return nil, err
	}
	c, err := collection.Load(registry.New(a.cfg.RegistryPath()), cl, placer.New(a.cfg.Game.ModsDir), a.log)
	if err != nil {
		return nil, err
	}
	return c.WithMetrics(a.metrics), nil
}

// close writes metrics and releases the ledger.
func (a *app) close() {
	if err := a.metrics.Write(); err != nil {
		a.log.Warnf("metrics: %v", err)
	}
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			a.log.Warnf("close state db: %v", err)
		}
		a.st = nil
	}
}

// session wraps a RunE so setup and teardown happen once per command.
func (a *app) session(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(); err != nil {
			return err
		}
		defer a.close()
		err := fn(cmd, args)
		if err != nil {
			a.metrics.IncErrors()
		}
		return err
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, ggerr.Errorf("parse id", ggerr.KindInvalid, "%q is not a mod id", s)
	}
	return id, nil
}
