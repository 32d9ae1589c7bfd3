package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vexc/internal/bif"
	"vexc/internal/pipeline"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <input>...",
	Short: "Compile vector kernel modules",
	Long:  "Compile kernel modules from portable IL or IR form into native kernel payloads.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  compileExecution,
}

func compileExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	options, err := cmd.Flags().GetString("options")
	if err != nil {
		return err
	}
	internalOptions, err := cmd.Flags().GetString("internal-options")
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	cpu, err := cmd.Flags().GetString("cpu")
	if err != nil {
		return err
	}
	specPairs, err := cmd.Flags().GetStringArray("spec")
	if err != nil {
		return err
	}
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dumpDir, err := cmd.Flags().GetString("dump-dir")
	if err != nil {
		return err
	}
	profileName, err := cmd.Flags().GetString("profile")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	specIDs, specVals, err := parseSpecPairs(specPairs)
	if err != nil {
		return err
	}

	settings, settingsFound, err := loadProfileSettings(".", profileName, cmd.Flags().Changed("options"))
	if err != nil {
		return err
	}
	if settingsFound {
		if !cmd.Flags().Changed("options") && settings.Options != "" {
			options = settings.Options
		}
		if !cmd.Flags().Changed("internal-options") && settings.InternalOptions != "" {
			internalOptions = settings.InternalOptions
		}
		if !cmd.Flags().Changed("cpu") && settings.CPU != "" {
			cpu = settings.CPU
		}
		if !cmd.Flags().Changed("strict") {
			strict = settings.Strict
		}
		if !cmd.Flags().Changed("dump-dir") && settings.DumpDir != "" {
			dumpDir = settings.DumpDir
		}
	}

	profiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := profiling.Stop(); stopErr != nil {
			fmt.Fprintf(os.Stderr, "profiling: %v\n", stopErr)
		}
	}()

	req := pipeline.Request{
		Inputs:          args,
		Format:          format,
		Options:         options,
		InternalOptions: internalOptions,
		Strict:          strict,
		CPU:             cpu,
		SpecIDs:         specIDs,
		SpecVals:        specVals,
		External:        bif.Default(),
		OutputDir:       outputDir,
		DumpDir:         dumpDir,
		Jobs:            jobs,
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	var res pipeline.Result
	if shouldUseTUI(uiModeValue) {
		res, err = runCompileWithUI(cmd.Context(), "vexc compile", args, &req)
	} else {
		res, err = pipeline.Run(cmd.Context(), &req)
	}
	if err != nil {
		if showTimings {
			printStageTimings(os.Stdout, res.Timings)
		}
		return err
	}

	if showTimings {
		printStageTimings(os.Stdout, res.Timings)
	}
	if !quiet {
		for _, artifact := range res.Artifacts {
			_, fprintfErr := fmt.Fprintf(os.Stdout, "wrote %s\n", artifact.OutputPath)
			if fprintfErr != nil {
				return fprintfErr
			}
		}
	}
	return nil
}

func init() {
	compileCmd.Flags().String("format", "auto", "input encoding (auto|pil|ir-text|ir-binary)")
	compileCmd.Flags().String("options", "", "api option string handed to the option resolver")
	compileCmd.Flags().String("internal-options", "", "internal option string handed to the option resolver")
	compileCmd.Flags().Bool("strict", false, "reject unknown options instead of ignoring them")
	compileCmd.Flags().String("cpu", "", "target device when the option strings name none")
	compileCmd.Flags().StringArray("spec", nil, "specialization constant as id=value (may repeat)")
	compileCmd.Flags().String("output", "", "directory for artifacts (default: next to each input)")
	compileCmd.Flags().String("dump-dir", "", "write intermediate dumps into this directory")
	compileCmd.Flags().String("profile", "", "named profile from vexc.toml")
	compileCmd.Flags().Int("jobs", 0, "parallel input reads (0 = GOMAXPROCS)")
	compileCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}
