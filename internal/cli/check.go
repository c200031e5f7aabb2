package cli

import (
	"errors"
	"fmt"

	"subcue/internal/engine"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [subtitle_file...]",
	Short: "Validate subtitle files against the strict cue grammar",
	Long: `Scan each file top to bottom and report the first structural
violation: a start time, time separator, or stop time that does not
match the format's fixed-width grammar. Files are never modified.

Examples:
  subcue check episode.srt
  subcue check *.vtt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	var failed bool
	for _, path := range args {
		eng, err := openEngine(path)
		if err != nil {
			return err
		}
		err = eng.Validate()
		var malformed *engine.MalformedError
		switch {
		case errors.As(err, &malformed):
			failed = true
			fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid %s: %s\n",
				path, malformed.Role, malformed.Line)
		case err != nil:
			return err
		default:
			logger.Debugw("Subtitle file is valid",
				"path", path,
				"cues", eng.CueCount(),
			)
		}
	}
	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
