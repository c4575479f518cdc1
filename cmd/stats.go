package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, sqlDB, lib, _, err := openEnv()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	count, err := lib.Count()
	if err != nil {
		return err
	}

	var totalBytes int64
	files, err := lib.All()
	if err != nil {
		return err
	}
	for _, f := range files {
		totalBytes += f.Size
	}

	fmt.Printf("index:  %s\n", cfg.DatabasePath)
	fmt.Printf("files:  %s\n", humanize.Comma(int64(count)))
	fmt.Printf("bytes:  %s\n", humanize.Bytes(uint64(totalBytes)))
	return nil
}
