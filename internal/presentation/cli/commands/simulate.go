package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/application"
	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// NewSimulateCmd creates the simulate command.
func NewSimulateCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Step through simulated days interactively",
		Long: `Run an interactive simulation session. Without --days, a REPL opens
where you can advance days, run rules, fire triggers, and inspect state.
With --days N, the simulation advances N days non-interactively and prints
the resulting state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days > 0 {
				return runSimulateBatch(cmd, days)
			}
			return runSimulateREPL(cmd)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "advance this many days and exit")

	return cmd
}

func runSimulateBatch(cmd *cobra.Command, days int) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	host := container.Host()
	for i := 0; i < days; i++ {
		day := host.AdvanceDay(cmd.Context())
		if formatter.Format() != output.FormatJSON {
			formatter.Println("%s", formatter.Bold(fmt.Sprintf("── Day %d ──", day)))
			printGameMessages(formatter, container)
		}
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{
			"day":   host.State().Day,
			"stats": container.Engine().ExecutionStats(),
		})
	}
	printState(formatter, container)
	return nil
}

func runSimulateREPL(cmd *cobra.Command) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return errors.New("application not initialized")
	}

	rl, err := readline.New("rentfall> ")
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	formatter.Info("Simulation started on day %d. Type 'help' for commands.", container.Host().State().Day)

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]

		switch command {
		case "quit", "exit", "q":
			return nil

		case "help", "?":
			printSimulateHelp(formatter)

		case "day", "next", "n":
			steps := 1
			if len(args) > 0 {
				if parsed, err := strconv.Atoi(args[0]); err == nil && parsed > 0 {
					steps = parsed
				}
			}
			for i := 0; i < steps; i++ {
				day := container.Host().AdvanceDay(cmd.Context())
				formatter.Println("%s", formatter.Bold(fmt.Sprintf("── Day %d ──", day)))
				printGameMessages(formatter, container)
			}

		case "run":
			if len(args) == 0 {
				formatter.Error("usage: run <rule-id> [actor]")
				continue
			}
			actor := ""
			if len(args) > 1 {
				actor = args[1]
			}
			result := container.Host().RunRule(cmd.Context(), args[0], actor)
			printExecutionResult(formatter, result)
			printGameMessages(formatter, container)

		case "group":
			if len(args) == 0 {
				formatter.Error("usage: group <group-name>")
				continue
			}
			printGroupResult(formatter, container.Host().RunGroup(cmd.Context(), args[0]))
			printGameMessages(formatter, container)

		case "trigger":
			if len(args) == 0 {
				formatter.Error("usage: trigger <trigger-name>")
				continue
			}
			result := container.Host().FireTrigger(cmd.Context(), args[0])
			formatter.Println("Trigger %s: %d of %d passive rules executed",
				formatter.Bold(args[0]), result.Executed, result.Total)
			printGameMessages(formatter, container)

		case "state", "st":
			printState(formatter, container)

		case "rules":
			if err := runRulesList(""); err != nil {
				formatter.Error("%s", err.Error())
			}

		case "stats":
			if err := runStats(); err != nil {
				formatter.Error("%s", err.Error())
			}

		default:
			formatter.Error("unknown command: %s (type 'help')", command)
		}
	}

	return nil
}

func printSimulateHelp(formatter *output.Formatter) {
	formatter.Header("Simulation Commands")
	formatter.Item("day [n]", "advance one day (or n days)")
	formatter.Item("run <rule-id> [actor]", "execute a rule")
	formatter.Item("group <name>", "execute a rule group")
	formatter.Item("trigger <name>", "fire a passive trigger")
	formatter.Item("state", "show game state")
	formatter.Item("rules", "list loaded rules")
	formatter.Item("stats", "show execution statistics")
	formatter.Item("quit", "leave the simulation")
}

func printState(formatter *output.Formatter, container *application.Container) {
	st := container.Host().State()

	formatter.Header(fmt.Sprintf("Day %d", st.Day))

	names := make([]string, 0, len(st.Resources))
	for name := range st.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		formatter.Item(name, strconv.FormatFloat(st.Resources[name], 'g', -1, 64))
	}

	if len(st.Actors) > 0 {
		rows := make([][]string, 0, len(st.Actors))
		for _, actor := range st.Actors {
			status := "healthy"
			switch {
			case actor.Evicted:
				status = "evicted"
			case actor.Infected && actor.InfectionKnown:
				status = "infected"
			case actor.Infected:
				status = "infected (hidden)"
			}
			rows = append(rows, []string{
				actor.Name,
				actor.Type,
				actor.Room,
				strconv.FormatFloat(actor.Satisfaction, 'g', -1, 64),
				status,
			})
		}
		formatter.Table(output.TableData{
			Columns: []output.TableColumn{
				{Header: "ACTOR"},
				{Header: "TYPE"},
				{Header: "ROOM"},
				{Header: "SATISFACTION"},
				{Header: "STATUS"},
			},
			Rows: rows,
		})
	}

	if len(st.Rooms) > 0 {
		rows := make([][]string, 0, len(st.Rooms))
		for _, room := range st.Rooms {
			flags := make([]string, 0, 2)
			if room.NeedsRepair {
				flags = append(flags, "needs repair")
			}
			if room.Reinforced {
				flags = append(flags, "reinforced")
			}
			occupant := room.Occupant
			if occupant == "" {
				occupant = "-"
			}
			rows = append(rows, []string{room.ID, occupant, strings.Join(flags, ", ")})
		}
		formatter.Table(output.TableData{
			Columns: []output.TableColumn{
				{Header: "ROOM"},
				{Header: "OCCUPANT"},
				{Header: "FLAGS"},
			},
			Rows: rows,
		})
	}
}
