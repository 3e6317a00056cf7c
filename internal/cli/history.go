package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"relocate/config"
	"relocate/internal/adapter/store"
	"relocate/internal/domain"
)

var (
	historyLimit int
	historyPath  string
	historyFmt   string
)

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "List recorded relocation runs, newest first",
	Long: `List the runs recorded in .relocate/ledger.db of an output directory.

Examples:
  relocate history dist -n 5
  relocate history dist --path external/react/index.js   # Which run moved this file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyPath, "path", "", "show the run that moved a file to this path")
	historyCmd.Flags().StringVarP(&historyFmt, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	if len(args) > 0 {
		dir = args[0]
	}

	dbPath := config.LedgerDBPath(dir)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", dir)
		return nil
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if historyPath != "" {
		id, ok, err := st.FindMove(historyPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "No recorded run moved a file to %s\n", historyPath)
			return nil
		}
		run, err := st.GetRun(id)
		if err != nil {
			return err
		}
		for _, r := range run.Result.Renamed {
			if r.To == historyPath {
				fmt.Fprintf(out, "%s  %s -> %s\n", run.StartedAt.Format("2006-01-02 15:04:05"), r.From, r.To)
			}
		}
		fmt.Fprintf(out, "run %s\n", run.ID)
		return nil
	}

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded in %s\n", dir)
		return nil
	}

	return printRuns(out, runs, historyFmt)
}

func printRuns(out io.Writer, runs []domain.RunRecord, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(runs)
	case "table", "":
	default:
		return fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", format)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Run", "Started", "Moved", "Rewritten", "Specifiers", "Took"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, run := range runs {
		table.Append([]string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(len(run.Result.Renamed)),
			strconv.Itoa(len(run.Result.Rewritten)),
			strconv.Itoa(run.Result.Specifiers),
			formatDuration(run.Duration),
		})
	}
	table.Render()
	return nil
}
