package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/acrouzet/phono/internal/stream"
)

var (
	streamStart int64
	streamEnd   int64
)

var streamCmd = &cobra.Command{
	Use:   "stream <id>",
	Short: "Write an indexed file (or a byte range of it) to stdout",
	Long: `Opens the indexed file by ID and copies the requested byte range to
stdout. With no range flags the whole file is written. This is the same
code path an HTTP layer would use to answer Range requests.`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().Int64Var(&streamStart, "start", 0, "first byte offset")
	streamCmd.Flags().Int64Var(&streamEnd, "end", 0, "end offset, exclusive (0 = end of file)")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	_, sqlDB, lib, _, err := openEnv()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var rng *stream.Range
	if streamStart != 0 || streamEnd != 0 {
		rng = &stream.Range{Start: streamStart, End: streamEnd}
	}

	h, err := stream.NewServer(lib).Open(id, rng)
	if err != nil {
		return err
	}
	defer h.Close()

	fmt.Fprintf(os.Stderr, "%s bytes %d-%d/%d\n", h.ContentType(), h.Start(), h.Start()+h.Length(), h.Size())
	_, err = io.Copy(os.Stdout, h)
	return err
}
