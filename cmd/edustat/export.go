package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		filterSpecs []string
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Write a dataset, optionally filtered, as xlsx or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilterFlags(filterSpecs)
			if err != nil {
				return err
			}
			if format != "xlsx" && format != "csv" {
				return fmt.Errorf("unknown format %q: want xlsx or csv", format)
			}
			if output == "" {
				output = args[0] + "." + format
			}

			w, err := c.createOutput(cmd, output)
			if err != nil {
				return err
			}
			if format == "xlsx" {
				err = c.service.ExportWorkbook(cmd.Context(), w, args[0], filters)
			} else {
				err = c.service.ExportCSV(cmd.Context(), w, args[0], filters)
			}
			if err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
	}
	addFilterFlag(cmd, &filterSpecs)
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default "<dataset>.<format>")`)
	return cmd
}
