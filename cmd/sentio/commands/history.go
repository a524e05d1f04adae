package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/cli"
)

var (
	historyTask  string
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear stored outcomes",
	Long: `List stored outcomes, newest first, from the context's history_dir.

Examples:
  sentio history --task sentiment --limit 10
  sentio history --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		if c.HistoryDir == "" {
			return errors.New("history is disabled for this context (set --history-dir)")
		}
		db, h, err := openHistory(c.HistoryDir)
		if err != nil {
			return err
		}
		defer db.Close()

		if historyClear {
			n, err := h.Clear(cmd.Context(), historyTask)
			if err != nil {
				return err
			}
			cli.PrintSuccess("Deleted %d records", n)
			return nil
		}

		rs, err := h.List(cmd.Context(), historyTask, historyLimit)
		if err != nil {
			return err
		}
		return outputResult(records(rs))
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyTask, "task", "", "only this task (default: all)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum records (0: all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the records instead of listing them")
}
