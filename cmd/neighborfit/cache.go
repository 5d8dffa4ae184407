// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/neighborfit/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the source data cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached entries and their expiry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		st := cache.Open(cfg.Cache.Path).Status()

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Printf("%s: %d entries (%d valid, %d expired)\n\n", st.Path, st.Total, st.Valid, st.Expired)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tCACHED\tEXPIRES IN")
		for _, e := range st.Entries {
			left := "expired"
			if !e.Expired {
				left = e.TimeToExpiry.Round(time.Second).String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.CachedAt.Format(time.RFC3339), left)
		}
		return tw.Flush()
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := cache.Open(cfg.Cache.Path)
		removed := store.SweepExpired()
		fmt.Printf("removed %d expired entries\n", removed)
		return store.Close()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := cache.Open(cfg.Cache.Path)
		n := store.Status().Total
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Printf("cleared %d entries\n", n)
		return nil
	},
}

func init() {
	cacheStatusCmd.Flags().Bool("json", false, "output as JSON")

	cacheCmd.AddCommand(cacheStatusCmd, cacheSweepCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
