package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/cache"
)

var cacheInvalidatePrefix string

// cacheCmd manages the local response cache
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local response cache",
	Long: `Inspect and maintain the on-disk response cache that backs --cached
reads and offline fallbacks.

Available subcommands:
  stats      - Show cache size and hit counters
  clear      - Drop every cached response
  prune      - Drop responses older than the configured TTL
  invalidate - Drop responses under an endpoint prefix`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and hit counters",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached response",
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop responses older than the configured TTL",
	RunE:  runCachePrune,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop responses under an endpoint prefix",
	RunE:  runCacheInvalidate,
}

func init() {
	cacheInvalidateCmd.Flags().StringVar(&cacheInvalidatePrefix, "prefix", "", "Endpoint prefix, e.g. /api/v2/buildings (required)")
	_ = cacheInvalidateCmd.MarkFlagRequired("prefix")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}

// openCacheDirect opens the cache database regardless of the enabled
// flag, so maintenance works even when caching is switched off.
func openCacheDirect() (*cache.Store, error) {
	return cache.Open(cliApp.cfg.CachePath(), cliApp.cfg.GetCacheTTL(), cliApp.cfg.Cache.MaxEntries)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	s, err := openCacheDirect()
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Stats()
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(stats)
	}

	fmt.Printf("Path:    %s\n", cliApp.cfg.CachePath())
	fmt.Printf("Entries: %d (max %d)\n", stats.Entries, cliApp.cfg.Cache.MaxEntries)
	fmt.Printf("Size:    %s\n", fmtBytes(stats.TotalBytes))
	fmt.Printf("TTL:     %s\n", cliApp.cfg.GetCacheTTL())
	if stats.Entries > 0 {
		fmt.Printf("Oldest:  %s\n", fmtTimeVal(stats.Oldest))
		fmt.Printf("Newest:  %s\n", fmtTimeVal(stats.Newest))
	}
	fmt.Printf("Hits:    %d this session, misses %d\n", stats.Hits, stats.Misses)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := openCacheDirect()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	s, err := openCacheDirect()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.PruneExpired()
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d expired entries.\n", n)
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	s, err := openCacheDirect()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.InvalidatePrefix(cacheInvalidatePrefix)
	if err != nil {
		return err
	}
	fmt.Printf("Invalidated %d entries under %s\n", n, cacheInvalidatePrefix)
	return nil
}
