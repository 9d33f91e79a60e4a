package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/trash-expiry/internal/expiry"
	"github.com/aatumaykin/trash-expiry/internal/logger"
	"github.com/aatumaykin/trash-expiry/internal/trash"
)

var listFormat string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List trashed items with their expiry class",
	Long: `List every item of every trash directory of the invoking user with its
age and expiry class. Nothing is modified.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "output format: text or yaml")
}

// listEntry is the serialized form of a classified item.
type listEntry struct {
	Class        string `yaml:"class"`
	AgeDays      *int   `yaml:"age_days"`
	DeletionDate string `yaml:"deletion_date,omitempty"`
	OriginalPath string `yaml:"original_path"`
	Path         string `yaml:"path"`
	Trash        string `yaml:"trash"`
}

func runList(cmd *cobra.Command, args []string) error {
	if listFormat != "text" && listFormat != "yaml" {
		return fmt.Errorf("unknown format %q (expected: text, yaml)", listFormat)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}

	entries, errs := a.engine(true).List(cmd.Context(), time.Now())
	for _, err := range errs {
		a.log.Warn("skipping trash entry", logger.Field{Key: "error", Value: err})
	}

	if err := writeList(cmd.OutOrStdout(), listFormat, entries); err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	if len(errs) > 0 {
		return &exitError{code: exitFailure}
	}
	return nil
}

func toListEntries(entries []expiry.Entry) []listEntry {
	out := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		le := listEntry{
			Class:        e.Class.String(),
			OriginalPath: e.Item.OriginalPath,
			Path:         e.Item.ContentPath,
			Trash:        e.Directory.Path,
		}
		if e.Item.HasDate() {
			days := expiry.Days(e.Age)
			le.AgeDays = &days
			le.DeletionDate = e.Item.DeletionDate.Format(trash.DateLayout)
		}
		out = append(out, le)
	}
	return out
}

func writeList(w io.Writer, format string, entries []expiry.Entry) error {
	items := toListEntries(entries)

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("failed to encode list: %w", err)
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tAGE\tDELETED\tORIGINAL PATH")
	for _, it := range items {
		age, deleted := "?", "?"
		if it.AgeDays != nil {
			age = fmt.Sprintf("%dd", *it.AgeDays)
			deleted = it.DeletionDate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Class, age, deleted, it.OriginalPath)
	}
	return tw.Flush()
}
