package cli

import (
	"fmt"
	"os"
	"strings"

	"subcue/internal/document"
	"subcue/internal/engine"

	"github.com/spf13/cobra"
)

// openEngine binds an engine of the right format to the file's content.
func openEngine(path string) (engine.Engine, error) {
	format, err := engine.Detect(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	doc := document.New(text)
	return engine.NewWithOptions(doc, format, engine.Options{
		DefaultCueLengthMS: cfg.DefaultCueLengthMS,
	})
}

// writeResult puts the edited document back, honoring --stdout and the
// configured write_in_place default.
func writeResult(cmd *cobra.Command, path, text string) error {
	toStdout, _ := cmd.Flags().GetBool("stdout")
	if toStdout || !cfg.WriteInPlace {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat subtitle file: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}
