package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"edudash/internal/config"
	"edudash/internal/datasets"
	"edudash/internal/infrastructure"
	"edudash/internal/rangefilter"
	"edudash/internal/services"
	"edudash/internal/validation"
	"edudash/pkg/contracts"
)

// cli carries the global flags and the service built from them.
type cli struct {
	dataDir  string
	baseURL  string
	geoFile  string
	timeout  time.Duration
	logLevel string

	// source overrides the flag-selected source; tests set it.
	source  datasets.Source
	service *services.DataService
	files   *validation.FileValidator
}

func newRootCmd(source datasets.Source) *cobra.Command {
	c := &cli{source: source}

	root := &cobra.Command{
		Use:           "edustat",
		Short:         "Query the regional education datasets behind the dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.ErrOrStderr())
		},
	}

	defaults := config.Default().Data
	f := root.PersistentFlags()
	f.StringVar(&c.dataDir, "data", defaults.Dir, "directory holding the CSV files and map")
	f.StringVar(&c.baseURL, "base-url", "", "fetch files over HTTP from this base URL instead of --data")
	f.StringVar(&c.geoFile, "geojson", defaults.GeoJSONFile, "map file name")
	f.DurationVar(&c.timeout, "timeout", defaults.FetchTimeout, "per-file fetch timeout for --base-url")
	f.StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = contracts.GetVersionInfo().String()

	root.AddCommand(
		newInspectCmd(c),
		newBoundsCmd(c),
		newTrendCmd(c),
		newRenderCmd(c),
		newExportCmd(c),
	)
	return root
}

func (c *cli) init(stderr io.Writer) error {
	logger := infrastructure.NewLogger(stderr, c.logLevel)

	c.files = validation.NewFileValidator(logger)

	source := c.source
	if source == nil {
		cfg := config.DataConfig{
			Source:       config.SourceFile,
			Dir:          c.dataDir,
			BaseURL:      c.baseURL,
			FetchTimeout: c.timeout,
		}
		if c.baseURL != "" {
			cfg.Source = config.SourceHTTP
		} else if err := c.files.ValidateDirectory(c.dataDir); err != nil {
			return err
		}
		var err error
		if source, err = datasets.NewSource(cfg); err != nil {
			return err
		}
	}

	loader := datasets.NewLoader(source, nil, nil, logger)
	catalog := datasets.NewCatalog(loader, c.geoFile, logger)
	c.service = services.NewDataService(catalog, nil, infrastructure.WithComponent(logger, "edustat"))
	return nil
}

// parseFilterFlags turns repeated --filter column:min:max flags into filters.
func parseFilterFlags(specs []string) (rangefilter.Filters, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	filters := make(rangefilter.Filters, len(specs))
	for _, s := range specs {
		column, r, err := rangefilter.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		if column == "" {
			return nil, fmt.Errorf("filter %q: column is required", s)
		}
		if r.Min > r.Max {
			return nil, fmt.Errorf("filter %q: min exceeds max", s)
		}
		filters[column] = r
	}
	return filters, nil
}

func addFilterFlag(cmd *cobra.Command, target *[]string) {
	cmd.Flags().StringArrayVarP(target, "filter", "f", nil,
		"range filter column:min:max, repeatable; empty max means unbounded")
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetHeader(header)
	return t
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// createOutput opens path for writing; "-" is stdout.
func (c *cli) createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	if err := c.files.ValidateOutputFile(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
