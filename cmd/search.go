package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 25, "maximum number of results (0 = no limit)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, sqlDB, lib, _, err := openEnv()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	results, err := lib.Search(strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}

	for _, f := range results {
		line := f.Title
		if f.Artist != "" {
			line = f.Artist + " - " + line
		}
		if f.Album != "" {
			line += " [" + f.Album + "]"
		}
		if f.Duration > 0 {
			line += " (" + formatDuration(f.Duration) + ")"
		}
		fmt.Printf("%6d  %s\n        %s\n", f.ID, line, f.Path)
	}
	if len(results) == 0 {
		fmt.Println("no results")
	}
	return nil
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
