package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/timefmt"
)

var showCmd = &cobra.Command{
	Use:   "show [job...]",
	Short: "Print the status columns of recorded jobs",
	Long: `Render the configured status columns for jobs in the build store.

Without arguments every job with recorded builds is shown.

Example:
  compactcols show --config ./compactcols.yaml --locale de api web`,
	RunE: showColumns,
}

func init() {
	showCmd.Flags().String("locale", "", "Locale for labels and times, overrides defaults.locale")
	showCmd.Flags().String("column", "", "Only show this column")
	showCmd.Flags().Bool("json", false, "Print the rendered columns as JSON")
}

func showColumns(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := applyLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	localeFlag, _ := cmd.Flags().GetString("locale")
	columnName, _ := cmd.Flags().GetString("column")
	asJSON, _ := cmd.Flags().GetBool("json")

	var l *timefmt.Locale
	if localeFlag != "" {
		l, err = timefmt.ParseLocale(localeFlag)
		if err != nil {
			return err
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	b, err := board.FromConfig(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to build columns: %w", err)
	}

	jobs := args
	if len(jobs) == 0 {
		jobs, err = b.Jobs()
		if err != nil {
			return err
		}
	}

	now := time.Now()
	var views []*board.View
	for _, id := range jobs {
		if columnName != "" {
			v, err := b.Render(id, columnName, l, now)
			if err != nil {
				return err
			}
			views = append(views, v)
			continue
		}
		row, err := b.Row(id, l, now)
		if err != nil {
			return err
		}
		views = append(views, row...)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	return printViews(cmd.OutOrStdout(), views)
}

// printViews writes one line per job and column.
func printViews(out io.Writer, views []*board.View) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tCOLUMN\tBUILDS")
	for _, v := range views {
		cells := make([]string, 0, len(v.Cells))
		for _, c := range v.Cells {
			s := fmt.Sprintf("#%d %s %s", c.Number, c.Status, c.TimeAgo)
			if c.Building {
				s += " (building)"
			}
			cells = append(cells, s)
		}
		builds := strings.Join(cells, ", ")
		if v.Empty {
			builds = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.JobID, v.Column, builds)
	}
	return w.Flush()
}
