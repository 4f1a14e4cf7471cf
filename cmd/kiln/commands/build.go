package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build the given targets, or the default set, with their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := buildOptions(cmd, args)
			silent, _ := cmd.Flags().GetBool("silent")
			outputMode, _ := cmd.Flags().GetString("output")

			// --silent is shorthand for --output=quiet
			if silent {
				outputMode = "quiet"
			}

			opts.OutputMode = outputMode
			return c.app.Build(cmd.Context(), opts)
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().BoolP("silent", "s", false, "Hide build output unless a target fails")
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, stream, or quiet")
	return cmd
}

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [targets...]",
		Short: "Print the build order and which targets are already built",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := buildOptions(cmd, args)
			return c.app.Plan(cmd.Context(), opts)
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("exclude", "x", nil, "Targets to leave out (comma separated)")
	cmd.Flags().IntP("jobs", "j", 0, "Parallel make jobs (default: number of CPUs)")
	cmd.Flags().Bool("nonfree", true, "Link non-free components (openssl, fdk_aac); the result cannot be redistributed")
	cmd.Flags().Bool("free", false, "Use free replacements for non-free components (same as --nonfree=false)")
	cmd.MarkFlagsMutuallyExclusive("nonfree", "free")
}

func buildOptions(cmd *cobra.Command, args []string) app.BuildOptions {
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	jobs, _ := cmd.Flags().GetInt("jobs")
	nonFree, _ := cmd.Flags().GetBool("nonfree")
	if free, _ := cmd.Flags().GetBool("free"); free {
		nonFree = false
	}
	return app.BuildOptions{
		Selection: app.Selection{
			ConfigPath: configPath(cmd),
			Targets:    args,
			Exclude:    exclude,
		},
		Jobs:    jobs,
		NonFree: nonFree,
	}
}
