package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTrendCmd(c *cli) *cobra.Command {
	var filterSpecs []string

	cmd := &cobra.Command{
		Use:   "trend <view>",
		Short: "Evaluate a scatter view and print its points and trend line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilterFlags(filterSpecs)
			if err != nil {
				return err
			}
			res, err := c.service.Trend(cmd.Context(), args[0], filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", res.Title)

			t := newTable(out, "地区", res.XLabel, res.YLabel)
			for _, p := range res.Points {
				t.Append([]string{p.Region, formatFloat(p.X), formatFloat(p.Y)})
			}
			t.Render()

			fmt.Fprintf(out, "slope=%s intercept=%s\n", formatFloat(res.Line.Slope), formatFloat(res.Line.Intercept))
			for _, e := range res.Line.Endpoints {
				fmt.Fprintf(out, "  (%s, %s)\n", formatFloat(e.X), formatFloat(e.Y))
			}
			return nil
		},
	}
	addFilterFlag(cmd, &filterSpecs)
	return cmd
}

func newRenderCmd(c *cli) *cobra.Command {
	var (
		filterSpecs []string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "render <view>",
		Short: "Draw a scatter view with its trend line as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilterFlags(filterSpecs)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + ".png"
			}

			w, err := c.createOutput(cmd, output)
			if err != nil {
				return err
			}
			if err := c.service.RenderScatter(cmd.Context(), w, args[0], filters); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
	}
	addFilterFlag(cmd, &filterSpecs)
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default "<view>.png")`)
	return cmd
}
