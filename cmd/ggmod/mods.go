package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/collection"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/util"
)

type modRow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Staged    bool   `json:"staged"`
	IsNSFW    bool   `json:"is_nsfw"`
	Path      string `json:"path"`
}

func newListCmd(a *app) *cobra.Command {
	var stagedOnly, unstagedOnly, jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered mods",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&stagedOnly, "staged", false, "Only staged mods")
	cmd.Flags().BoolVar(&unstagedOnly, "unstaged", false, "Only unstaged mods")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.RunE = a.session(func(cmd *cobra.Command, _ []string) error {
		c, err := a.collection()
		if err != nil {
			return err
		}
		mods := c.Mods()
		switch {
		case stagedOnly && !unstagedOnly:
			mods = c.Staged()
		case unstagedOnly && !stagedOnly:
			mods = c.Unstaged()
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			rows := make([]modRow, 0, len(mods))
			for _, m := range mods {
				rows = append(rows, modRow{m.ID, m.Name, m.Character, m.Staged, m.IsNSFW, m.LocalPath})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		if len(mods) == 0 {
			fmt.Fprintln(out, "No mods registered. Use 'ggmod search' and 'ggmod download <id>'.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTAGED\tCHARACTER\tNAME")
		for _, m := range mods {
			staged := "-"
			if m.Staged {
				staged = "yes"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, staged, m.Character, m.Name)
		}
		return tw.Flush()
	})
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var fileIndex int
	var install bool
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download one file of a GameBanana mod and register it",
		Long: `Fetches the mod page for <id>, downloads and extracts the chosen file and
adds the mod to the collection unstaged. Without --file the available files
are listed and one is read from stdin.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&fileIndex, "file", -1, "File number to download (as listed)")
	cmd.Flags().BoolVar(&install, "install", false, "Stage the mod after downloading")
	cmd.RunE = a.session(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cl, err := a.client()
		if err != nil {
			return err
		}
		c, err := a.collection()
		if err != nil {
			return err
		}
		if c.Contains(id) {
			return ggerr.Errorf("download", ggerr.KindAlreadyExists, "mod %d is already registered", id)
		}
		page, err := cl.ModPage(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if fileIndex < 0 {
			if fileIndex, err = promptFile(cmd, page); err != nil {
				return err
			}
		}
		if err := c.RegisterOnlineMod(cmd.Context(), page, id, fileIndex); err != nil {
			return err
		}
		mod, _ := c.Get(id)
		fmt.Fprintf(out, "registered %d %s -> %s\n", id, mod.Name, mod.LocalPath)
		if install {
			if err := c.Stage(id); err != nil {
				// keep the registration even though staging failed
				if perr := c.Persist(); perr != nil {
					a.log.Errorf("persist: %v", perr)
				}
				return err
			}
			fmt.Fprintf(out, "staged %d\n", id)
		}
		return c.Persist()
	})
	return cmd
}

// promptFile lists page's files and reads a number from stdin. A page with
// a single file needs no answer.
func promptFile(cmd *cobra.Command, page *catalog.ModPage) (int, error) {
	out := cmd.OutOrStdout()
	switch len(page.Files) {
	case 0:
		return 0, ggerr.Errorf("download", ggerr.KindNotFound, "mod %q has no files", page.Name)
	case 1:
		return 0, nil
	}
	fmt.Fprintf(out, "%s has %d files:\n", page.Name, len(page.Files))
	for i, f := range page.Files {
		fmt.Fprintf(out, "  [%d] %s (%s)\n", i, f.Label(), humanize.Bytes(uint64(f.Filesize)))
	}
	fmt.Fprint(out, "file number: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return 0, ggerr.E("read file choice", ggerr.KindInvalid, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, ggerr.Errorf("read file choice", ggerr.KindInvalid, "%q is not a number", strings.TrimSpace(line))
	}
	return n, nil
}

// newStagingCmd builds the single-id commands that change a mod and persist.
func newStagingCmd(a *app, use, short string, op func(*collection.Collection, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.session(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.collection()
			if err != nil {
				return err
			}
			if err := op(c, id); err != nil {
				return err
			}
			if err := c.Persist(); err != nil {
				return err
			}
			state := "unstaged"
			if m, _ := c.Get(id); m.Staged {
				state = "staged"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", id, state)
			return nil
		}),
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Forget a mod, unstaging it first",
		Long: `Remove drops a mod from the collection. A staged mod is unstaged first.
With --purge the extracted download and its fetch history are deleted too,
so a later download starts from scratch.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete the extracted download and its ledger entries")
	cmd.RunE = a.session(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := a.collection()
		if err != nil {
			return err
		}
		mod, err := c.Get(id)
		if err != nil {
			return err
		}
		if err := c.Remove(id); err != nil {
			return err
		}
		if err := c.Persist(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d removed\n", id)
		if !purge {
			return nil
		}
		for _, other := range c.Mods() {
			if other.LocalPath == mod.LocalPath {
				fmt.Fprintf(out, "kept %s: still used by %d\n", mod.LocalPath, other.ID)
				return nil
			}
		}
		return a.purgeDownload(out, mod.LocalPath)
	})
	return cmd
}

// purgeDownload deletes an extracted download directory and the ledger rows
// that point at it. Directories outside the download root are left alone.
func (a *app) purgeDownload(out io.Writer, dir string) error {
	if dir == "" || !util.Within(a.cfg.General.DownloadRoot, dir) || filepath.Clean(dir) == filepath.Clean(a.cfg.General.DownloadRoot) {
		fmt.Fprintf(out, "kept %s: not inside %s\n", dir, a.cfg.General.DownloadRoot)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return ggerr.E("purge", ggerr.KindIO, err)
	}
	rows, err := a.st.ListFetches()
	if err != nil {
		return ggerr.E("purge", ggerr.KindIO, err)
	}
	for _, r := range rows {
		if filepath.Clean(r.Dir) != filepath.Clean(dir) {
			continue
		}
		if err := a.st.DeleteFetch(r.File); err != nil {
			return ggerr.E("purge", ggerr.KindIO, err)
		}
	}
	fmt.Fprintf(out, "purged %s\n", dir)
	return nil
}
