package cli

import (
	"fmt"
	"strconv"
	"strings"

	"subcue/internal/engine"

	"github.com/spf13/cobra"
)

var shiftCmd = &cobra.Command{
	Use:   "shift [subtitle_file]",
	Short: "Shift every cue by a time offset",
	Long: `Add a signed offset to all start and stop times in the file. The
offset is given in milliseconds or as a timestamp in the file's own
format; prefix with - to shift backwards. Times clamp at zero.

Examples:
  subcue shift --by 1200 episode.srt
  subcue shift --by -00:00:02.500 episode.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runShift,
}

func init() {
	rootCmd.AddCommand(shiftCmd)

	shiftCmd.Flags().StringP("by", "b", "", "Offset: milliseconds or a timestamp (required)")
	_ = shiftCmd.MarkFlagRequired("by")
}

func runShift(cmd *cobra.Command, args []string) error {
	path := args[0]
	by, _ := cmd.Flags().GetString("by")

	eng, err := openEngine(path)
	if err != nil {
		return err
	}
	delta, err := parseOffset(eng, by)
	if err != nil {
		return err
	}
	if err := eng.ShiftAll(delta); err != nil {
		return err
	}
	logger.Infow("Shifted subtitle timings",
		"path", path,
		"delta_ms", delta,
		"cues", eng.CueCount(),
	)
	return writeResult(cmd, path, eng.Doc().String())
}

func parseOffset(eng engine.Engine, s string) (int, error) {
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return sign * ms, nil
	}
	ms, err := eng.ParseTimestamp(s)
	if err != nil {
		return 0, fmt.Errorf("offset %q is neither milliseconds nor a timestamp: %w", s, err)
	}
	return sign * ms, nil
}
