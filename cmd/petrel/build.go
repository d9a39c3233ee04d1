package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petrel-lang/petrel"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/spf13/cobra"
)

func init() {
	buildCmd.Flags().StringP("output", "o", "", "Path to write the image to")
	buildCmd.Flags().Bool("stats", false, "Print statistics about the program")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Assemble a program into a .pbc image",
	Long: `Assemble a Petrel program and write the result as a compiled
image. The image can later be executed with "petrel run" or inspected
with "petrel dis" without reassembling.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger()

		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		chunk, err := petrel.Assemble(string(source), petrel.WithFilename(args[0]))
		if err != nil {
			return err
		}

		data, err := bytecode.Marshal(chunk)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = imagePath(args[0])
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return err
		}
		log.Debug().Str("path", outPath).Int("bytes", len(data)).Msg("wrote image")

		if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
			printStats(chunk, outPath, len(data))
		}
		return nil
	},
}

// imagePath derives the output path from the source path by replacing
// its extension with .pbc.
func imagePath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	if ext != "" && ext != filepath.Base(sourcePath) {
		return strings.TrimSuffix(sourcePath, ext) + ".pbc"
	}
	return sourcePath + ".pbc"
}

func printStats(chunk *bytecode.Chunk, path string, imageBytes int) {
	var instructions, constants, globals, functions int
	for _, c := range chunk.Flatten() {
		stats := c.Stats()
		instructions += stats.InstructionCount
		constants += stats.ConstantCount
		globals += stats.GlobalCount
		functions += stats.FunctionCount
	}
	fmt.Printf("%s %s\n", faint("image:"), path)
	fmt.Printf("%s %d\n", faint("image bytes:"), imageBytes)
	fmt.Printf("%s %d\n", faint("chunks:"), len(chunk.Flatten()))
	fmt.Printf("%s %d\n", faint("instructions:"), instructions)
	fmt.Printf("%s %d\n", faint("constants:"), constants)
	fmt.Printf("%s %d\n", faint("globals:"), globals)
	fmt.Printf("%s %d\n", faint("functions:"), functions)
}
