package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// NewRulesCmd creates the rules command group.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect loaded rules",
		Long:  `List and inspect the rule definitions loaded from the rules directory.`,
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesInfoCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List loaded rules",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(group)
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "only show rules in this group")

	return cmd
}

func runRulesList(group string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	infos := container.Engine().ListRules()
	if group != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if info.Group == group {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{
			"rules": infos,
			"count": len(infos),
		})
	}

	if len(infos) == 0 {
		formatter.Info("No rules loaded")
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		enabled := "yes"
		if !info.Enabled {
			enabled = "no"
		}
		rows = append(rows, []string{
			info.ID,
			info.Name,
			info.Group,
			strconv.Itoa(info.Priority),
			enabled,
			strconv.Itoa(info.ExecutionCount),
		})
	}

	return formatter.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "ID"},
			{Header: "NAME"},
			{Header: "GROUP"},
			{Header: "PRIORITY"},
			{Header: "ENABLED"},
			{Header: "EXECUTIONS"},
		},
		Rows: rows,
	})
}

func newRulesInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <rule-id>",
		Short: "Show details for one rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesInfo(args[0])
		},
	}
}

func runRulesInfo(ruleID string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	info := container.Engine().RuleInfo(ruleID)
	if info == nil {
		return fmt.Errorf("rule not found: %s", ruleID)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(info)
	}

	formatter.Header(info.Name)
	formatter.Item("ID", info.ID)
	if info.Description != "" {
		formatter.Item("Description", info.Description)
	}
	formatter.Item("Group", info.Group)
	formatter.Item("Priority", strconv.Itoa(info.Priority))
	formatter.Item("Enabled", strconv.FormatBool(info.Enabled))
	formatter.Item("Cooldown", formatCooldown(info.Cooldown))
	if info.MaxExecutions > 0 {
		formatter.Item("Max Executions", strconv.Itoa(info.MaxExecutions))
	}
	if len(info.Cost) > 0 {
		formatter.Item("Cost", formatCost(info.Cost))
	}
	formatter.Item("Conditions", strconv.Itoa(info.ConditionCount))
	formatter.Item("Effects", strconv.Itoa(info.EffectCount))
	formatter.Item("Executions", strconv.Itoa(info.ExecutionCount))
	if info.ExecutionCount > 0 {
		formatter.Item("Last Executed", "day "+strconv.Itoa(info.LastExecuted))
	}

	return nil
}

func formatCooldown(days int) string {
	switch {
	case days < 0:
		return "one-time"
	case days == 0:
		return "none"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func formatCost(cost map[string]float64) string {
	parts := make([]string, 0, len(cost))
	for resource, amount := range cost {
		parts = append(parts, fmt.Sprintf("%s=%g", resource, amount))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
