package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/petrel-lang/petrel"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/errz"
	"github.com/petrel-lang/petrel/vm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func init() {
	runCmd.Flags().StringP("code", "c", "", "Code to evaluate")
	runCmd.Flags().Bool("stdin", false, "Read code from stdin")
	runCmd.Flags().Bool("trace", false, "Log every instruction, call, and return")
	runCmd.Flags().Bool("show-result", false, "Print the result of the program")
	runCmd.Flags().Bool("timing", false, "Show execution time")
	runCmd.Flags().StringP("output", "o", "", "Result output format (json, text)")
	runCmd.Flags().Int("max-frame-depth", 0, "Maximum call depth (0 for the default)")
	runCmd.Flags().Int64("instruction-limit", 0, "Maximum instructions to execute (0 for unlimited)")
	runCmd.RegisterFlagCompletionFunc("output",
		func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return outputFormatsCompletion, cobra.ShellCompDirectiveDefault
		})
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Petrel program",
	Long: `Run a Petrel program from assembly source or from a compiled
image. Files ending in .pbc are treated as images; anything else is
assembled first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger()

		chunk, err := loadChunk(cmd, args)
		if err != nil {
			return err
		}
		log.Debug().
			Str("chunk", chunk.Name()).
			Int("instructions", chunk.InstructionCount()).
			Msg("loaded program")

		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := petrel.Run(ctx, chunk, opts...)
		if err != nil {
			return formatRuntimeError(err)
		}
		dt := time.Since(start)

		if showResult, _ := cmd.Flags().GetBool("show-result"); showResult {
			format, _ := cmd.Flags().GetString("output")
			output, err := getOutput(result, format)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Println(output)
			}
		}
		if timing, _ := cmd.Flags().GetBool("timing"); timing {
			fmt.Printf("%v\n", dt)
		}
		return nil
	},
}

// loadChunk resolves the program for run and dis: either a compiled .pbc
// image or assembly source from a file, --code, or stdin.
func loadChunk(cmd *cobra.Command, args []string) (*bytecode.Chunk, error) {
	if len(args) > 0 && filepath.Ext(args[0]) == ".pbc" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		return bytecode.Unmarshal(data)
	}
	name, source, err := getSource(cmd, args)
	if err != nil {
		return nil, err
	}
	return petrel.Assemble(source, petrel.WithFilename(name))
}

func runOptions(cmd *cobra.Command) ([]petrel.Option, error) {
	var opts []petrel.Option
	if depth, _ := cmd.Flags().GetInt("max-frame-depth"); depth > 0 {
		opts = append(opts, petrel.WithMaxFrameDepth(depth))
	}
	if limit, _ := cmd.Flags().GetInt64("instruction-limit"); limit > 0 {
		opts = append(opts, petrel.WithInstructionLimit(limit))
	}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		traceLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.TraceLevel)
		opts = append(opts, petrel.WithObserver(vm.NewTraceObserver(traceLogger)))
	}
	return opts, nil
}

// formatRuntimeError renders runtime errors with their stack trace, and
// passes other errors through unchanged.
func formatRuntimeError(err error) error {
	e, ok := errz.AsRuntimeError(err)
	if !ok {
		return err
	}
	return fmt.Errorf("%s", strings.TrimRight(e.FriendlyErrorMessage(), "\n"))
}
