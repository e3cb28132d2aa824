package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"droneanalytics/packages/excel"
	"droneanalytics/packages/flights"
	"droneanalytics/packages/parsing/datetime"
	"droneanalytics/packages/parsing/geoIndex"
	"droneanalytics/packages/parsing/geoSearch"
	"droneanalytics/packages/stats"
)

var (
	parseView   bool
	parseOutput string

	statsFrom   string
	statsTo     string
	statsRegion string
	statsAll    bool
	statsTop    int
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.xlsx>",
	Short: "Parse an Excel export and print flight records as JSON",
	Long: `Разбирает выгрузку без записи в базу. Регионы определяются по GeoJSON
из каталога regions.dir, если он доступен.

Examples:
  droneanalytics parse flights.xlsx
  droneanalytics parse flights.xlsx --view -o flights.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var statsCmd = &cobra.Command{
	Use:   "stats <file.xlsx>",
	Short: "Print the statistics report for an Excel export",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	parseCmd.Flags().BoolVar(&parseView, "view", false, "replace empty values with placeholders")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "output file (default stdout)")

	statsCmd.Flags().StringVar(&statsFrom, "from", "", "start date, YYYY-MM-DD")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "end date, YYYY-MM-DD")
	statsCmd.Flags().StringVar(&statsRegion, "region", "", "region name substring")
	statsCmd.Flags().BoolVar(&statsAll, "all", false, "ignore --from/--to (full dataset)")
	statsCmd.Flags().IntVar(&statsTop, "top", stats.DefaultTopN, "size of top/bottom region lists")
}

// parseFile читает файл и собирает записи; регионы берутся из локального каталога
func parseFile(ctx context.Context, path string) (flights.Batch, error) {
	rows, err := excel.ReadFile(path)
	if err != nil {
		return flights.Batch{}, err
	}

	var resolver flights.Resolver
	set, err := geoIndex.LoadDir(cfg.Regions.Dir, log)
	if err != nil {
		log.Warn("Regions not loaded, region fields stay empty", zap.Error(err))
	} else {
		resolver = geoSearch.NewCachedResolver(geoSearch.NewMemoryResolver(set), cfg.Regions.CacheSize, log)
	}

	pipeline := flights.NewPipeline(
		flights.NewBuilder(resolver, cfg.Parsing.CoordinatePrecision, log),
		cfg.Parsing.Workers,
		log,
	)
	return pipeline.Run(ctx, rows), nil
}

func runParse(cmd *cobra.Command, args []string) error {
	batch, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if parseOutput != "" {
		f, err := os.Create(parseOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if parseView {
		return writeJSON(out, flights.NewViews(batch.Records, cfg.Parsing.MaxDuration))
	}
	return writeJSON(out, batch.Records)
}

func runStats(cmd *cobra.Command, args []string) error {
	filter := flights.Filter{Region: statsRegion, IncludeAll: statsAll}
	for _, bound := range []struct {
		value string
		dst   **datetime.Date
	}{
		{statsFrom, &filter.From},
		{statsTo, &filter.To},
	} {
		if bound.value == "" {
			continue
		}
		d, err := datetime.ParseISODate(bound.value)
		if err != nil {
			return err
		}
		*bound.dst = &d
	}

	batch, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	report := stats.Aggregate(batch.Records, filter, stats.Options{
		TopN:        statsTop,
		MaxDuration: cfg.Parsing.MaxDuration,
	})
	return writeJSON(cmd.OutOrStdout(), report)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
