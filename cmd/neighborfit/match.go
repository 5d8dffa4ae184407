// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/neighborfit/internal/catalog"
	"github.com/pdiddy/neighborfit/internal/match"
	"github.com/pdiddy/neighborfit/pkg/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank catalog neighborhoods against your preferences",
	Long: `Match scores candidates from the catalog against 1-5 ratings for every
factor and prints the best fits with their similarity scores.

Ratings come from --prefs (safety=5,walkability=3,...) or --prefs-file (JSON
or YAML object). With --realtime, features are derived from live and cached
source data; otherwise the catalog's stored attributes are used.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().String("prefs", "", "ratings as name=value pairs, comma-separated")
	matchCmd.Flags().String("prefs-file", "", "JSON or YAML file with ratings")
	matchCmd.Flags().Bool("realtime", false, "enrich candidates from live sources")
	matchCmd.Flags().String("city", "", "only consider candidates in this city")
	matchCmd.Flags().String("catalog", "", "candidate file (default catalog.path)")
	matchCmd.Flags().Int("limit", 0, "number of results (default 10 realtime, 5 static)")
	matchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	prefs, err := prefsFromFlags(cmd)
	if err != nil {
		return err
	}

	realtime, _ := cmd.Flags().GetBool("realtime")
	city, _ := cmd.Flags().GetString("city")
	catalogPath, _ := cmd.Flags().GetString("catalog")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := cmd.Context()
	candidates, err := eng.loadCandidates(ctx, catalogPath, realtime)
	if err != nil {
		return err
	}
	candidates, _ = catalog.Dedupe(candidates)
	pool := catalog.FilterCity(candidates, city)
	if len(pool) == 0 {
		return fmt.Errorf("no candidates match city %q", city)
	}

	out, err := eng.matcher.Match(ctx, match.Request{
		Prefs:       prefs,
		Pool:        pool,
		ResultCount: limit,
		Enrich:      realtime,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printMatches(os.Stdout, out)
	return nil
}

func prefsFromFlags(cmd *cobra.Command) (types.Preferences, error) {
	inline, _ := cmd.Flags().GetString("prefs")
	file, _ := cmd.Flags().GetString("prefs-file")

	var (
		p   types.Preferences
		err error
	)
	switch {
	case inline != "" && file != "":
		return p, fmt.Errorf("use either --prefs or --prefs-file, not both")
	case inline != "":
		p, err = parsePrefs(inline)
	case file != "":
		p, err = readPrefsFile(file)
	default:
		return p, fmt.Errorf("provide ratings with --prefs or --prefs-file")
	}
	if err != nil {
		return p, err
	}
	return p, validatePrefs(p)
}

func printMatches(w io.Writer, out types.MatchOutput) {
	fmt.Fprintf(w, "%s matches (%s, %d of %d candidates scored)\n\n", out.DataSource, out.Algorithm, out.Enriched, out.PoolSize)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNEIGHBORHOOD\tCITY\tSIMILARITY\tDATA")
	for i, r := range out.Results {
		data := "catalog"
		switch {
		case r.DataQuality != nil && r.UsedDefaults:
			data = fmt.Sprintf("defaults (%.0f%%)", r.DataQuality.Score)
		case r.DataQuality != nil:
			data = fmt.Sprintf("live (%.0f%%)", r.DataQuality.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%s\n", i+1, r.Candidate.Name, r.Candidate.City, r.Similarity, data)
	}
	_ = tw.Flush()

	if out.EnrichmentWarning {
		fmt.Fprintln(w, "\nwarning: live data was unavailable for every result; scores use baseline features")
	}
}
