package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rentfall/rentfall/internal/presentation/cli/output"
)

// buildInfo is the version payload for JSON output.
type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuildInfo() buildInfo {
	return buildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the rentfall version and build details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}

func runVersion(short bool) error {
	format := output.FormatText
	if globalFlags.Output == "json" {
		format = output.FormatJSON
	}

	formatter := output.NewFormatter(
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON),
	)

	if short {
		if format == output.FormatJSON {
			return formatter.JSON(map[string]string{"version": Version})
		}
		formatter.Println("%s", Version)
		return nil
	}

	info := currentBuildInfo()
	if format == output.FormatJSON {
		return formatter.JSON(info)
	}

	formatter.Header("Rentfall")
	rows := []struct{ label, value string }{
		{"Version", info.Version},
		{"Git Commit", info.GitCommit},
		{"Build Date", info.BuildDate},
		{"Go Version", info.GoVersion},
		{"Platform", info.Platform},
	}
	for _, row := range rows {
		formatter.Item(row.label, row.value)
	}

	return nil
}
