package main

import (
	"fmt"
	"os"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/dis"
	"github.com/spf13/cobra"
)

func init() {
	disCmd.Flags().StringP("code", "c", "", "Code to disassemble")
	disCmd.Flags().Bool("stdin", false, "Read code from stdin")
	disCmd.Flags().String("func", "", "Function to disassemble")
	rootCmd.AddCommand(disCmd)
}

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Disassemble Petrel bytecode",
	Long: `Disassemble a Petrel program from assembly source or from a
compiled .pbc image. By default all chunks are printed; use --func to
disassemble a single function.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chunk, err := loadChunk(cmd, args)
		if err != nil {
			return err
		}

		// If a function name was provided, disassemble its chunk only
		if funcName, _ := cmd.Flags().GetString("func"); funcName != "" {
			fn := findFunction(chunk, funcName)
			if fn == nil {
				return fmt.Errorf("function %q not found", funcName)
			}
			instructions, err := dis.Disassemble(fn.Chunk())
			if err != nil {
				return err
			}
			dis.Print(instructions, os.Stdout)
			return nil
		}

		return dis.Fprint(os.Stdout, chunk)
	},
}

func findFunction(chunk *bytecode.Chunk, name string) *bytecode.Function {
	for _, c := range chunk.Flatten() {
		for i := 0; i < c.ConstantCount(); i++ {
			fn, ok := c.ConstantAt(i).(*bytecode.Function)
			if !ok {
				continue
			}
			if fn.Name() == name {
				return fn
			}
		}
	}
	return nil
}
