package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-mcp/internal/cache"
	"github.com/pdiddy/openreview-mcp/internal/export"
	"github.com/pdiddy/openreview-mcp/internal/openreview"
	"github.com/pdiddy/openreview-mcp/internal/server"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <query>",
	Short: "Export the top matching papers to a JSON file",
	Long: `Export searches the given venues, ranks the matches, and writes them to a
JSON file with a YAML summary sidecar. With --pdfs each paper's PDF is
downloaded and its text extracted into the export; a paper whose download
fails stays in the export with an error note.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSlice("venues", nil, "venues to export from, each as <venue>/<year> (e.g. ICLR.cc/2024)")
	exportCmd.Flags().StringSlice("fields", nil, "fields to search: title, abstract, authors (default title,abstract)")
	exportCmd.Flags().String("mode", "any", "match mode: any, all, exact")
	exportCmd.Flags().String("dir", "", "export directory (default from config)")
	exportCmd.Flags().String("filename", "", "export file stem; generated from the query when empty")
	exportCmd.Flags().Float64("min-score", 0, "minimum match score between 0 and 1")
	exportCmd.Flags().Int("max-papers", 0, "maximum number of papers to export (default 10)")
	exportCmd.Flags().Bool("abstracts", false, "include each paper's abstract in the export")
	exportCmd.Flags().Bool("pdfs", false, "download each paper's PDF and extract its text")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	venueArgs, _ := cmd.Flags().GetStringSlice("venues")
	venues, err := parseVenueArgs(venueArgs)
	if err != nil {
		return err
	}
	fieldNames, _ := cmd.Flags().GetStringSlice("fields")
	fields, err := types.ParseFields(fieldNames)
	if err != nil {
		return err
	}
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := types.ParseMatchMode(modeName)
	if err != nil {
		return err
	}
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	if minScore < 0 || minScore > 1 {
		return fmt.Errorf("min-score must be between 0 and 1, got %g", minScore)
	}

	cfg := buildConfig()
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.Export.ExportDir
	}
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	if maxPapers == 0 {
		maxPapers = cfg.Export.MaxPapers
	}
	filename, _ := cmd.Flags().GetString("filename")
	abstracts, _ := cmd.Flags().GetBool("abstracts")
	pdfs, _ := cmd.Flags().GetBool("pdfs")

	client := openreview.New(cfg.Client)
	var store *cache.Store
	if cfg.Cache.Enabled {
		s, err := cache.Open(cfg.Cache)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: venue cache unavailable: %v\n", err)
		} else {
			store = s
			defer store.Close()
		}
	}
	// The server wrapper adds cached venue fetches to the export client.
	srv := server.New(client, store, cfg, nil, version)

	summary, err := export.Run(cmd.Context(), srv, export.Options{
		Query:            query,
		Venues:           venues,
		Fields:           fields,
		Mode:             mode,
		MinScore:         minScore,
		Limit:            cfg.Search.MaxResults,
		MaxPapers:        maxPapers,
		DownloadPDFs:     pdfs,
		IncludeAbstracts: abstracts,
		ExportDir:        dir,
		Filename:         filename,
		DownloadWorkers:  cfg.Export.DownloadWorkers,
		DownloadTimeout:  cfg.Export.DownloadTimeout,
	}, os.Stderr)
	if err != nil {
		return err
	}

	if summary.Exported == 0 {
		fmt.Printf("No papers matched %q; nothing exported\n", query)
		return nil
	}
	fmt.Printf("Exported %d of %d candidate papers to %s\n", summary.Exported, summary.Candidates, summary.Path)
	if summary.SummaryPath != "" {
		fmt.Printf("Summary: %s\n", summary.SummaryPath)
	}
	if summary.Failures > 0 {
		fmt.Printf("%d paper(s) kept with a failed PDF download\n", summary.Failures)
	}
	return nil
}
