package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"relocate/config"
	"relocate/internal/adapter/fs"
	"relocate/internal/adapter/metafile"
	"relocate/internal/adapter/store"
	"relocate/internal/port"
	"relocate/internal/usecase"
)

var (
	applyDryRun   bool
	applyNoMaps   bool
	applyLabel    string
	applyMetafile string
)

var applyCmd = &cobra.Command{
	Use:   "apply [dir]",
	Short: "Relocate vendored files in an output directory",
	Long: `Relocate every file under the output directory whose path contains
node_modules, rewrite the specifiers that import them, and regenerate the
source maps of rewritten chunks. Runs are recorded in .relocate/ledger.db.

Examples:
  relocate apply dist                        # Relocate dist/
  relocate apply --label vendor dist         # Use "vendor" instead of "external"
  relocate apply --metafile meta.json dist   # Take chunk imports from esbuild`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "report what would change without writing")
	applyCmd.Flags().BoolVar(&applyNoMaps, "no-maps", false, "do not regenerate source maps")
	applyCmd.Flags().StringVar(&applyLabel, "label", "", "replacement for node_modules (overrides config)")
	applyCmd.Flags().StringVar(&applyMetafile, "metafile", "", "esbuild metafile supplying chunk imports")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	opts, err := passOptions(applyLabel, applyNoMaps)
	if err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Output.Includes, cfg.Output.Excludes)
	loader := fs.NewLoader(walker, cfg.Output.ChunkExtensions)

	metaPath := applyMetafile
	if metaPath == "" {
		metaPath = cfg.Output.Metafile
	}
	if metaPath != "" {
		meta, err := metafile.Load(metaPath)
		if err != nil {
			return fmt.Errorf("failed to load metafile: %w", err)
		}
		loader.WithMetafile(meta)
	}

	var ledger port.Ledger
	if cfg.Ledger.Enabled && !applyDryRun {
		if err := config.EnsureStateDir(path); err != nil {
			return fmt.Errorf("failed to create .relocate directory: %w", err)
		}
		st, err := store.NewBoltStore(config.LedgerDBPath(path))
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer st.Close()
		ledger = st
	}

	relocateUC := usecase.NewRelocateUseCase(loader, fs.NewWriter(), usecase.NewMutator(opts, nil), ledger, cfg.Ledger.Keep)

	fmt.Printf("Scanning %s...\n", path)

	var progress port.ProgressFunc
	if term.IsTerminal(int(os.Stdout.Fd())) {
		progress = newProgress()
	}

	run, err := relocateUC.Relocate(cmd.Context(), path, usecase.RelocateOptions{
		DryRun:   applyDryRun,
		Progress: progress,
	})
	if err != nil {
		return err
	}

	if applyDryRun {
		fmt.Printf("\nDry run, nothing written:\n")
	} else {
		fmt.Printf("\nRelocation complete:\n")
	}
	fmt.Printf("  Files moved:      %d\n", len(run.Result.Renamed))
	fmt.Printf("  Chunks rewritten: %d\n", len(run.Result.Rewritten))
	fmt.Printf("  Specifiers:       %d\n", run.Result.Specifiers)
	fmt.Printf("  Chunks parsed:    %d\n", run.Result.Parsed)
	fmt.Printf("  Took:             %s\n", formatDuration(run.Duration))

	if applyDryRun || len(run.Result.Renamed) <= 20 {
		for _, r := range run.Result.Renamed {
			fmt.Printf("  %s -> %s\n", r.From, r.To)
		}
	}
	if ledger != nil {
		fmt.Printf("\nRun %s recorded in %s\n", run.ID, config.LedgerDBPath(path))
	}
	return nil
}

// newProgress renders load and write progress. A new bar starts with each
// phase.
func newProgress() port.ProgressFunc {
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	lastTotal, lastProcessed := -1, 0

	return func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if total != lastTotal || processed < lastProcessed {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Processing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			lastTotal = total
		}

		bar.Set(processed)
		lastProcessed = processed

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Processing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
