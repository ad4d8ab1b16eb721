package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/panchambanerjee/cite-verify-cli/internal/cache"
	"github.com/panchambanerjee/cite-verify-cli/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the verification cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		stats, err := c.ReadStats()
		if err != nil {
			return exitError(ExitError, "reading cache: %v", err)
		}
		fmt.Printf("Cache: %s\n", cache.DefaultDir())
		fmt.Printf("Total entries:   %d\n", stats.Total)
		fmt.Printf("Valid entries:   %d\n", stats.Valid)
		fmt.Printf("Expired entries: %d\n", stats.Expired)
		for queryType, n := range stats.ByType {
			fmt.Printf("  %-16s %d\n", queryType, n)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached verification outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		var n int
		if cacheExpiredOnly {
			n, err = c.ClearExpired()
		} else {
			n, err = c.Clear()
		}
		if err != nil {
			return exitError(ExitError, "clearing cache: %v", err)
		}
		fmt.Printf("Removed %d entries\n", n)
		return nil
	},
}

var cacheExpiredOnly bool

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheExpiredOnly, "expired", false, "Only remove expired entries")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache() (*cache.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, exitError(ExitConfigError, "loading config: %v", err)
	}
	c, err := cache.Open("", time.Duration(cfg.CacheTTLDays)*24*time.Hour)
	if err != nil {
		return nil, exitError(ExitError, "opening cache: %v", err)
	}
	return c, nil
}
