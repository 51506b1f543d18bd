package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newBoundsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "bounds <dataset> <column>...",
		Short: "Print the derived filter range of numeric columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout(), "column", "min", "max", "percent", "values")
			for _, column := range args[1:] {
				b, err := c.service.Bounds(cmd.Context(), args[0], column)
				if err != nil {
					return err
				}
				t.Append([]string{
					b.Column,
					formatFloat(b.Min),
					formatFloat(b.Max),
					strconv.FormatBool(b.PercentLike),
					strconv.Itoa(b.Values),
				})
			}
			t.Render()
			return nil
		},
	}
}
