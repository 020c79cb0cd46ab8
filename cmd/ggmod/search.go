package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jxwalker/ggmod/internal/browse"
	"github.com/jxwalker/ggmod/internal/catalog"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		page     int
		size     int
		sortName string
		typeName string
		category int
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search GameBanana for GGST mods",
		Long: `Lists one page of GameBanana submissions for the game. A category id
takes precedence over the name; with neither, every submission of the
selected type is listed.`,
		Args: cobra.MaximumNArgs(1),
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "Page number (1-based)")
	f.IntVar(&size, "size", 0, "Results per page (default from config)")
	f.StringVar(&sortName, "sort", "recent", "Sort order: recent|popular|featured")
	f.StringVar(&typeName, "type", "mod", "Submission type: mod|sound|wip")
	f.IntVar(&category, "category", 0, "Category id (see 'ggmod categories')")
	f.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.RunE = a.session(func(cmd *cobra.Command, args []string) error {
		sortOrder, err := catalog.ParseSort(sortName)
		if err != nil {
			return ggerr.E("search", ggerr.KindInvalid, err)
		}
		modType, err := catalog.ParseModType(typeName)
		if err != nil {
			return ggerr.E("search", ggerr.KindInvalid, err)
		}
		if page < 1 {
			return ggerr.Errorf("search", ggerr.KindInvalid, "page must be at least 1")
		}
		cl, err := a.client()
		if err != nil {
			return err
		}
		perPage := a.cfg.Catalog.PerPage
		if size > 0 {
			perPage = size
		}
		b := browse.New(cl, browse.Options{
			GameID:      a.cfg.Game.ID,
			PerPage:     perPage,
			NSFW:        a.cfg.Catalog.NSFW,
			ResultLabel: a.cfg.UI.ResultLabel,
		}, a.log)
		b.Type.Set(modType)
		b.Sort.Set(sortOrder)
		if category != 0 {
			b.SetCategory(category)
		}
		if len(args) == 1 {
			b.Results.SetQuery(args[0])
		}
		b.Page = page
		if err := b.Search(cmd.Context()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		entries := b.Results.Values()
		if jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "No results on page %d.\n", b.Page)
			return nil
		}
		registered := map[int]bool{}
		if c, err := a.collection(); err == nil {
			for _, m := range c.Mods() {
				registered[m.ID] = true
			}
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tVIEWS\tLIKES\tUPDATED\tCATEGORY\tNAME")
		for _, e := range entries {
			name := e.Name
			if registered[e.Row] {
				name += " (registered)"
			}
			if e.IsNSFW {
				name += " [nsfw]"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Row,
				humanize.Comma(int64(e.ViewCount)), humanize.Comma(int64(e.LikeCount)),
				updated(e), e.Category.Name, name)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		st := b.State()
		fmt.Fprintf(out, "\npage %d, %s, sorted by %s\n", st.Page, st.Type, st.Sort)
		return nil
	})
	return cmd
}

func updated(e catalog.SearchEntry) string {
	ts := e.DateUpdated
	if ts == 0 {
		ts = e.DateAdded
	}
	if ts == 0 {
		return "-"
	}
	return humanize.Time(time.Unix(ts, 0))
}

func newCategoriesCmd(a *app) *cobra.Command {
	var root int
	var refresh bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List mod categories (characters and other groups)",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&root, "root", 0, "Parent category id (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the local category cache")
	cmd.RunE = a.session(func(cmd *cobra.Command, _ []string) error {
		cl, err := a.client()
		if err != nil {
			return err
		}
		if root == 0 {
			root = a.cfg.Game.CategoryRoot
		}
		if refresh {
			if err := cl.ClearCache(); err != nil {
				return err
			}
		}
		cats, err := cl.Categories(cmd.Context(), root)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMODS\tNAME")
		for _, c := range cats {
			fmt.Fprintf(tw, "%d\t%d\t%s\n", c.Row, c.ItemCount, c.Name)
		}
		return tw.Flush()
	})
	return cmd
}
