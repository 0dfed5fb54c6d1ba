package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-mcp/internal/openreview"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List papers for a conference venue or an author",
	Long: `Papers lists submissions. With --venue and --year it lists a conference's
submissions; with --email it lists the papers of the user with that address.`,
	RunE: runPapers,
}

func init() {
	papersCmd.Flags().String("venue", "", "venue group (e.g. ICLR.cc)")
	papersCmd.Flags().String("year", "", "four-digit conference year")
	papersCmd.Flags().String("email", "", "author email address")
	papersCmd.Flags().Int("limit", 0, "maximum number of papers to list")
	papersCmd.Flags().Bool("abstracts", false, "print abstracts")
	papersCmd.Flags().Bool("json", false, "output papers as JSON")

	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	venue, _ := cmd.Flags().GetString("venue")
	year, _ := cmd.Flags().GetString("year")
	email, _ := cmd.Flags().GetString("email")

	if (email == "") == (venue == "") {
		return fmt.Errorf("provide either --venue with --year, or --email")
	}

	cfg := buildConfig()
	ctx := cmd.Context()

	var subs []types.Submission
	if email != "" {
		client := openreview.New(cfg.Client)
		papers, err := client.AuthorPapers(ctx, email)
		if err != nil {
			return err
		}
		subs = papers
	} else {
		spec := types.VenueSpec{Venue: venue, Year: year}
		if err := spec.Validate(); err != nil {
			return err
		}
		pool, err := fetchPool(cmd, cfg, []types.VenueSpec{spec})
		if err != nil {
			return err
		}
		subs = pool
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(subs)
	}

	abstracts, _ := cmd.Flags().GetBool("abstracts")
	fmt.Printf("%d papers:\n\n", len(subs))
	for i, sub := range subs {
		fmt.Printf("%3d. %s\n", i+1, sub.Title)
		if len(sub.Authors) > 0 {
			fmt.Printf("     %s\n", strings.Join(sub.Authors, ", "))
		}
		if sub.ForumURL != "" {
			fmt.Printf("     %s\n", sub.ForumURL)
		}
		if abstracts && sub.Abstract != "" {
			fmt.Printf("     %s\n", sub.Abstract)
		}
	}
	return nil
}
