package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/acrouzet/phono/internal/scanner"
	"github.com/acrouzet/phono/internal/tags"
)

var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "Scan root directories and reconcile the index",
	Long: `Walks the given roots (or the configured ones when none are given),
extracts metadata from new and changed audio files, and removes entries
for files that vanished from disk.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, sqlDB, lib, log, err := openEnv()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	roots := args
	if len(roots) == 0 {
		roots = cfg.Roots
	}
	if len(roots) == 0 {
		return errors.New("no roots given and none configured")
	}

	sc := scanner.New(lib, tags.NewExtractor(), scanner.Options{
		Workers:        cfg.Scan.Workers,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		IncludeHidden:  cfg.Scan.IncludeHidden,
	}, log)

	report, err := sc.Scan(cmd.Context(), roots)
	if err != nil {
		return err
	}

	fmt.Printf("scanned %s in %s\n",
		humanize.Comma(int64(len(report.Added)+len(report.Updated)+report.Unchanged)),
		report.Elapsed().Round(time.Millisecond))
	fmt.Printf("  added %d, updated %d, removed %d, unchanged %d, skipped %d\n",
		len(report.Added), len(report.Updated), len(report.Removed), report.Unchanged, report.Skipped)

	for _, re := range report.RootErrors {
		fmt.Printf("  root failed: %s: %v\n", re.Path, re.Err)
	}
	for _, fe := range report.Errors {
		fmt.Printf("  error: %s: %v\n", fe.Path, fe.Err)
	}
	return nil
}
