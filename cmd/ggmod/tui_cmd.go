package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jxwalker/ggmod/internal/config"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/placer"
	"github.com/jxwalker/ggmod/internal/registry"
	ui "github.com/jxwalker/ggmod/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive browser and mod manager",
		Args:  cobra.NoArgs,
		RunE: a.session(func(cmd *cobra.Command, _ []string) error {
			if !a.terminal() {
				return ggerr.NewFriendlyError("ggmod tui needs an interactive terminal",
					"Run it directly in a terminal, or use 'ggmod search' and 'ggmod list' from scripts")
			}
			// The screen belongs to bubbletea; logs go to a file instead.
			if err := config.EnsureDir(a.cfg.General.DataRoot, 0o755); err != nil {
				return err
			}
			logPath := filepath.Join(a.cfg.General.DataRoot, "ggmod.log")
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			level := a.v.GetString("log-level")
			if level == "" {
				level = a.cfg.Logging.Level
			}
			a.log = logging.NewWithWriter(f, level, false)

			cl, err := a.client()
			if err != nil {
				return err
			}
			m, err := ui.New(cmd.Context(), a.cfg, a.log, registry.New(a.cfg.RegistryPath()), placer.New(a.cfg.Game.ModsDir), cl, a.metrics)
			if err != nil {
				return err
			}
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if s := ui.Session(final); s != nil {
				if perr := s.Persist(); perr != nil {
					a.log.Errorf("persist: %v", perr)
					if err == nil {
						err = perr
					}
				}
			}
			if err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		}),
	}
}
