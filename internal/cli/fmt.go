package cli

import (
	"github.com/spf13/cobra"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [subtitle_file...]",
	Short: "Normalize subtitle files to canonical form",
	Long: `Collapse separators to one blank line, trim stray whitespace, and
rewrite timestamp transitions to the canonical " --> " token. Cue text
and timing are left untouched.

Examples:
  subcue fmt episode.vtt
  subcue fmt --stdout episode.srt > clean.srt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		eng, err := openEngine(path)
		if err != nil {
			return err
		}
		before := eng.Doc().Len()
		if err := eng.Sanitize(); err != nil {
			return err
		}
		logger.Infow("Sanitized subtitle file",
			"path", path,
			"format", eng.Format(),
			"cues", eng.CueCount(),
			"bytes_before", before,
			"bytes_after", eng.Doc().Len(),
		)
		if err := writeResult(cmd, path, eng.Doc().String()); err != nil {
			return err
		}
	}
	return nil
}
