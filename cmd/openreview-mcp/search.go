package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-mcp/internal/cache"
	"github.com/pdiddy/openreview-mcp/internal/match"
	"github.com/pdiddy/openreview-mcp/internal/openreview"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search papers by keywords across conference venues",
	Long: `Search fetches the submissions of the given venues, scores them against
the query, and prints the ranked matches. Venues are given as <venue>/<year>,
e.g. ICLR.cc/2024.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("venues", nil, "venues to search, each as <venue>/<year> (e.g. ICLR.cc/2024)")
	searchCmd.Flags().StringSlice("fields", nil, "fields to search: title, abstract, authors (default title,abstract)")
	searchCmd.Flags().String("mode", "any", "match mode: any, all, exact")
	searchCmd.Flags().Int("limit", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Float64("min-score", 0, "minimum match score between 0 and 1")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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
	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 {
		limit = cfg.Search.MaxResults
	}

	pool, err := fetchPool(cmd, cfg, venues)
	if err != nil {
		return err
	}

	results := match.Match(query, pool, match.Options{
		Fields:   fields,
		Mode:     mode,
		MinScore: minScore,
		Limit:    limit,
	})

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Printf("No papers matched %q\n", query)
		return nil
	}
	fmt.Printf("%d papers matched %q (of %d candidates):\n\n", len(results), query, len(pool))
	for i, r := range results {
		fmt.Printf("%2d. [%.2f] %s\n", i+1, r.Score, r.Submission.Title)
		fmt.Printf("    %s %s", r.Submission.Venue, r.Submission.Year)
		if len(r.Submission.Authors) > 0 {
			fmt.Printf(" - %s", strings.Join(r.Submission.Authors, ", "))
		}
		fmt.Println()
		if r.Submission.ForumURL != "" {
			fmt.Printf("    %s\n", r.Submission.ForumURL)
		}
	}
	return nil
}

// fetchPool concatenates the venue listings, going through the cache when
// it is enabled. A venue that fails is reported and skipped; only all
// venues failing is fatal.
func fetchPool(cmd *cobra.Command, cfg types.ServerConfig, venues []types.VenueSpec) ([]types.Submission, error) {
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

	ctx := cmd.Context()
	var pool []types.Submission
	failed := 0
	for _, spec := range venues {
		var subs []types.Submission
		ok := false
		if store != nil {
			subs, ok = store.Get(ctx, spec)
		}
		if !ok {
			var err error
			subs, err = client.Submissions(ctx, spec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", spec, err)
				failed++
				continue
			}
			if store != nil {
				if err := store.Put(ctx, spec, subs); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: caching %s: %v\n", spec, err)
				}
			}
		}
		pool = append(pool, subs...)
	}
	if failed == len(venues) {
		return nil, fmt.Errorf("no venue could be fetched")
	}
	return pool, nil
}
