package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jxwalker/ggmod/internal/state"
	"github.com/jxwalker/ggmod/internal/system"
)

func newStatusCmd(a *app) *cobra.Command {
	var onlyErrors, summary, jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the archive fetch ledger",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "Show only failed fetches")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print totals only")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.RunE = a.session(func(cmd *cobra.Command, _ []string) error {
		if _, err := a.client(); err != nil {
			return err
		}
		rows, err := a.st.ListFetches()
		if err != nil {
			return err
		}
		if onlyErrors {
			failed := rows[:0]
			for _, r := range rows {
				if r.Status == state.StatusFailed {
					failed = append(failed, r)
				}
			}
			rows = failed
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if rows == nil {
				rows = []state.FetchRow{}
			}
			return enc.Encode(rows)
		}
		if !summary {
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSTATUS\tSIZE\tUPDATED\tDETAIL")
			for _, r := range rows {
				detail := r.Dir
				if r.Status == state.StatusFailed {
					detail = r.LastError
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.File, r.Status,
					humanize.Bytes(uint64(r.Size)), humanize.Time(time.Unix(r.UpdatedAt, 0)), detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		counts := map[string]int{}
		for _, r := range rows {
			counts[r.Status]++
		}
		size, files, err := system.DirSize(a.cfg.General.DownloadRoot)
		if err != nil {
			a.log.Warnf("measure %s: %v", a.cfg.General.DownloadRoot, err)
		}
		fmt.Fprintf(out, "\n%d fetches: %d extracted, %d failed, %d in progress\n",
			len(rows), counts[state.StatusExtracted], counts[state.StatusFailed], counts[state.StatusDownloading])
		fmt.Fprintf(out, "download cache: %s in %d files (%s)\n", humanize.Bytes(uint64(size)), files, a.cfg.General.DownloadRoot)
		return nil
	})
	return cmd
}
