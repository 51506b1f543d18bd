package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newInspectCmd(c *cli) *cobra.Command {
	var (
		filterSpecs []string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "inspect [dataset]",
		Short: "List datasets and views, or print one dataset's records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.listCatalog(cmd)
			}
			filters, err := parseFilterFlags(filterSpecs)
			if err != nil {
				return err
			}

			ds, records, err := c.service.Records(cmd.Context(), args[0], filters)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), ds.Columns...)
			for i, rec := range records {
				if limit > 0 && i == limit {
					break
				}
				row := make([]string, len(ds.Columns))
				for j, col := range ds.Columns {
					row[j] = rec.Get(col).String()
				}
				t.Append(row)
			}
			t.SetFooter(footer(len(ds.Columns), fmt.Sprintf("%d / %d", len(records), ds.Len())))
			t.Render()
			return nil
		},
	}
	addFilterFlag(cmd, &filterSpecs)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n records (0 prints all)")
	return cmd
}

func (c *cli) listCatalog(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	ds := newTable(out, "dataset", "file", "records", "columns")
	for _, info := range c.service.Datasets() {
		d, err := c.service.Dataset(cmd.Context(), info.Name)
		if err != nil {
			return err
		}
		ds.Append([]string{info.Name, info.File, strconv.Itoa(d.Len()), strings.Join(d.Columns, ", ")})
	}
	ds.Render()

	fmt.Fprintln(out)

	vs := newTable(out, "view", "title", "datasets", "scatter")
	for _, v := range c.service.Views() {
		vs.Append([]string{v.Name, v.Title, strings.Join(v.Datasets, ", "), strconv.FormatBool(v.Scatter)})
	}
	vs.Render()
	return nil
}

// footer puts text in the last of n footer cells.
func footer(n int, text string) []string {
	cells := make([]string, n)
	if n > 0 {
		cells[n-1] = text
	}
	return cells
}
