// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/neighborfit/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Discover and inspect candidate neighborhoods",
}

var catalogDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find neighborhoods around the configured cities in OpenStreetMap",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		found, err := eng.discoverer.Discover(cmd.Context(), cfg.Catalog.Cities)
		if err != nil {
			return err
		}
		if out == "" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(found)
		}
		if err := catalog.WriteFile(out, found); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d neighborhoods to %s\n", len(found), out)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates in the catalog file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("catalog")
		city, _ := cmd.Flags().GetString("city")
		asJSON, _ := cmd.Flags().GetBool("json")
		if path == "" {
			path = cfg.Catalog.Path
		}
		if path == "" {
			return fmt.Errorf("no catalog: pass --catalog or set catalog.path")
		}

		candidates, err := catalog.LoadFile(path)
		if err != nil {
			return err
		}
		candidates, _ = catalog.Dedupe(candidates)
		candidates = catalog.FilterCity(candidates, city)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(candidates)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCITY\tID")
		for _, c := range candidates {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.City, c.ID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d candidates\n", len(candidates))
		return nil
	},
}

func init() {
	catalogDiscoverCmd.Flags().String("out", "", "write to a .json or .yaml file instead of stdout")

	catalogListCmd.Flags().String("catalog", "", "candidate file (default catalog.path)")
	catalogListCmd.Flags().String("city", "", "only list candidates in this city")
	catalogListCmd.Flags().Bool("json", false, "output as JSON")

	catalogCmd.AddCommand(catalogDiscoverCmd, catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}
