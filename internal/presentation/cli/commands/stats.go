package commands

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate execution statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runStats() error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	eng := container.Engine()
	stats := eng.ExecutionStats()

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{
			"stats":      stats,
			"rule_count": eng.RuleCount(),
		})
	}

	formatter.Header("Execution Statistics")
	formatter.Item("Rules Loaded", strconv.Itoa(eng.RuleCount()))
	formatter.Item("Total Executions", strconv.Itoa(stats.TotalExecutions))
	formatter.Item("Successful", strconv.Itoa(stats.SuccessfulExecutions))
	formatter.Item("With Errors", strconv.Itoa(stats.FailedExecutions))

	return nil
}
