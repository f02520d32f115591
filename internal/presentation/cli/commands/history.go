package commands

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		limit    int
		ruleID   string
		actor    string
		archived bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show execution history",
		Long: `Show recent rule executions from the in-memory history ring, or from
the SQLite archive with --archived (requires history.archive enabled in the
configuration). --rule and --actor filters query the archive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit, ruleID, actor, archived)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show")
	cmd.Flags().StringVar(&ruleID, "rule", "", "filter the archive by rule id")
	cmd.Flags().StringVar(&actor, "actor", "", "filter the archive by actor name")
	cmd.Flags().BoolVar(&archived, "archived", false, "read from the SQLite archive instead of the in-memory ring")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, ruleID, actor string, archived bool) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	var (
		records []ports.HistoryRecord
		err     error
	)

	switch {
	case ruleID != "" || actor != "" || archived:
		archive := container.Archive()
		if archive == nil {
			return errors.New("history archive is not enabled (set history.archive: true)")
		}
		switch {
		case ruleID != "":
			records, err = archive.ByRule(cmd.Context(), ruleID, limit)
		case actor != "":
			records, err = archive.ByActor(cmd.Context(), actor, limit)
		default:
			return errors.New("--archived requires --rule or --actor")
		}
		if err != nil {
			return err
		}
	default:
		records = container.Engine().ExecutionHistory(limit)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{
			"records": records,
			"count":   len(records),
		})
	}

	if len(records) == 0 {
		formatter.Info("No executions recorded")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "errors"
		}
		rows = append(rows, []string{
			rec.ExecutionID[:8],
			rec.RuleID,
			rec.ActorName,
			strconv.Itoa(rec.Day),
			status,
		})
	}

	return formatter.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "EXECUTION"},
			{Header: "RULE"},
			{Header: "ACTOR"},
			{Header: "DAY"},
			{Header: "STATUS"},
		},
		Rows: rows,
	})
}
