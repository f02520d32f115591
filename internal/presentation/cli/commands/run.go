package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/application"
	"github.com/rentfall/rentfall/internal/application/engine"
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		actorName string
		group     string
		trigger   string
	)

	cmd := &cobra.Command{
		Use:   "run [rule-id]",
		Short: "Execute a rule, a rule group, or a trigger",
		Long: `Execute a single rule by id, every rule in a group (--group), or the
passive rules listening for a trigger (--trigger). The rule runs against the
simulated game state seeded from configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			if len(args) > 0 {
				modes++
			}
			if group != "" {
				modes++
			}
			if trigger != "" {
				modes++
			}
			if modes != 1 {
				return errors.New("specify exactly one of: a rule id, --group, or --trigger")
			}

			switch {
			case group != "":
				return runGroup(cmd, group)
			case trigger != "":
				return runTrigger(cmd, trigger)
			default:
				return runRule(cmd, args[0], actorName)
			}
		},
	}

	cmd.Flags().StringVarP(&actorName, "actor", "a", "", "actor name the rule executes for")
	cmd.Flags().StringVarP(&group, "group", "g", "", "execute every enabled rule in this group")
	cmd.Flags().StringVarP(&trigger, "trigger", "t", "", "fire passive rules listening for this trigger")

	return cmd
}

func runRule(cmd *cobra.Command, ruleID, actorName string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	result := container.Host().RunRule(cmd.Context(), ruleID, actorName)

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}
	printExecutionResult(formatter, result)
	printGameMessages(formatter, container)
	return nil
}

func runGroup(cmd *cobra.Command, group string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	result := container.Host().RunGroup(cmd.Context(), group)

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}
	printGroupResult(formatter, result)
	printGameMessages(formatter, container)
	return nil
}

func runTrigger(cmd *cobra.Command, trigger string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	result := container.Host().FireTrigger(cmd.Context(), trigger)

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}
	formatter.Println("Trigger %s: %d of %d passive rules executed",
		formatter.Bold(trigger), result.Executed, result.Total)
	for _, r := range result.Results {
		printExecutionResult(formatter, r)
	}
	printGameMessages(formatter, container)
	return nil
}

func printExecutionResult(formatter *output.Formatter, result *engine.ExecutionResult) {
	if !result.Executed {
		formatter.Warning("%s rejected: %s", result.RuleID, result.Reason)
		if result.Message != "" {
			formatter.Item("Detail", result.Message)
		}
		if result.Reason == "cooldown_active" && result.RemainingCooldown != 0 {
			formatter.Item("Remaining", formatRemaining(result.RemainingCooldown))
		}
		if len(result.FailedConditions) > 0 {
			formatter.Item("Failed Conditions", fmt.Sprint(result.FailedConditions))
		}
		return
	}

	if result.HasErrors {
		formatter.Warning("%s executed with %d effect error(s)", result.RuleID, countFailed(result.Results))
	} else {
		formatter.Success("%s executed (%d effects)", result.RuleID, len(result.Results))
	}
	for i, effectResult := range result.Results {
		if effectResult.Failed() {
			formatter.Item(fmt.Sprintf("effect %d", i), formatter.Colorize(effectResult.Type+": "+effectResult.Error, output.ColorRed))
			continue
		}
		formatter.Item(fmt.Sprintf("effect %d", i), effectResult.Type)
	}
}

func printGroupResult(formatter *output.Formatter, result *engine.GroupExecutionResult) {
	formatter.Println("Group %s: %d of %d rules executed",
		formatter.Bold(result.Group), result.Executed, result.Total)
	for _, r := range result.Results {
		printExecutionResult(formatter, r)
	}
}

func printGameMessages(formatter *output.Formatter, container *application.Container) {
	for _, msg := range container.Host().Messages().Drain() {
		formatter.Println("  %s %s", formatter.Dim("["+msg.Category+"]"), msg.Text)
	}
}

func countFailed(results []ports.EffectResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}

func formatRemaining(days int) string {
	if days < 0 {
		return "permanent (one-time rule)"
	}
	return strconv.Itoa(days) + " days"
}
