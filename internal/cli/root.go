package cli

import (
	"subcue/internal/config"
	"subcue/internal/logging"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "subcue",
	Short: "Structural editor for subtitle files",
	Long: `Subcue edits subtitle files (SRT, WebVTT, ASS/SSA) directly as text:
it normalizes whitespace and separators, validates the cue grammar, and
shifts timestamps, all without reflowing anything it was not asked to
touch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		logger = logging.NewFileLogger(verbose, cfg.LogFile)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().
		BoolP("stdout", "s", false, "Write the result to stdout instead of the input file")
}
