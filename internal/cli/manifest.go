package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"relocate/internal/usecase"
)

var (
	manifestIn     string
	manifestOut    string
	manifestLabel  string
	manifestNoMaps bool
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Relocate a JSON bundle manifest",
	Long: `Read a bundle manifest (an object mapping output paths to chunk or asset
entries), relocate it, and write the result. Reads stdin and writes stdout
unless -i/-o are given.

Examples:
  relocate manifest -i bundle.json -o relocated.json
  cat bundle.json | relocate manifest --label vendor`,
	Args: cobra.NoArgs,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVarP(&manifestIn, "input", "i", "", "input manifest (default stdin)")
	manifestCmd.Flags().StringVarP(&manifestOut, "output", "o", "", "output manifest (default stdout)")
	manifestCmd.Flags().StringVar(&manifestLabel, "label", "", "replacement for node_modules (overrides config)")
	manifestCmd.Flags().BoolVar(&manifestNoMaps, "no-maps", false, "do not regenerate source maps")
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	opts, err := passOptions(manifestLabel, manifestNoMaps)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if manifestIn != "" {
		f, err := os.Open(manifestIn)
		if err != nil {
			return fmt.Errorf("failed to open manifest: %w", err)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = cmd.OutOrStdout()
	var outFile *os.File
	if manifestOut != "" {
		outFile, err = os.CreateTemp(filepath.Dir(manifestOut), ".manifest-*")
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer os.Remove(outFile.Name())
		defer outFile.Close()
		out = outFile
	}

	result, err := usecase.NewManifestUseCase(usecase.NewMutator(opts, nil)).Relocate(in, out)
	if err != nil {
		return err
	}

	if outFile != nil {
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := os.Rename(outFile.Name(), manifestOut); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	log.Info().
		Int("renamed", len(result.Renamed)).
		Int("rewritten", len(result.Rewritten)).
		Msg("manifest relocated")
	return nil
}
