package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/petrel-lang/petrel"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given arguments and returns everything
// written to stdout. Flag state is reset afterwards so executions don't
// leak into each other.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	viper.Set("no-color", true)
	t.Cleanup(resetFlags)

	old := os.Stdout
	r, w, err := os.Pipe()
	require.Nil(t, err)
	os.Stdout = w

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.Nil(t, err)
	return buf.String(), execErr
}

func resetFlags() {
	for _, cmd := range append(rootCmd.Commands(), rootCmd) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				f.Value.Set(f.DefValue)
				f.Changed = false
			}
		})
	}
}

func writeProgram(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunSource(t *testing.T) {
	path := writeProgram(t, "add.pasm", "const 3\nconst 4\nadd\nprint\n")
	output, err := execute(t, "run", path)
	require.Nil(t, err)
	require.Equal(t, "7\n", output)
}

func TestRunMissingInput(t *testing.T) {
	_, err := execute(t, "run")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "no input provided")
}

func TestBuildAndRunImage(t *testing.T) {
	path := writeProgram(t, "loop.pasm", strings.Join([]string{
		"const 0",
		"defglobal sum",
		"const 0",
		"defglobal i",
		"top:",
		"getglobal i",
		"const 5",
		"lt",
		"jumpf done",
		"getglobal sum",
		"getglobal i",
		"add",
		"setglobal sum",
		"pop",
		"getglobal i",
		"const 1",
		"add",
		"setglobal i",
		"pop",
		"jump top",
		"done:",
		"getglobal sum",
		"print",
		"",
	}, "\n"))

	imagePath := filepath.Join(filepath.Dir(path), "loop.pbc")
	_, err := execute(t, "build", path, "-o", imagePath)
	require.Nil(t, err)

	data, err := os.ReadFile(imagePath)
	require.Nil(t, err)
	require.NotEmpty(t, data)

	output, err := execute(t, "run", imagePath)
	require.Nil(t, err)
	require.Equal(t, "10\n", output)
}

func TestDisassembleSource(t *testing.T) {
	path := writeProgram(t, "ex.pasm", "const 3\nconst 4\nadd\n")
	output, err := execute(t, "dis", path)
	require.Nil(t, err)
	require.Contains(t, output, "LOAD_CONST")
	require.Contains(t, output, "BINARY_OP")
	require.Contains(t, output, "| OFFSET |")
}

func TestDisassembleFunction(t *testing.T) {
	path := writeProgram(t, "fn.pasm", strings.Join([]string{
		".func double 1",
		"getlocal 0",
		"const 2",
		"mul",
		"ret",
		".end",
		"const &double",
		"pop",
		"",
	}, "\n"))

	output, err := execute(t, "dis", path, "--func", "double")
	require.Nil(t, err)
	require.Contains(t, output, "BINARY_OP")
	require.Contains(t, output, "RETURN_VALUE")

	_, err = execute(t, "dis", path, "--func", "missing")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), `function "missing" not found`)
}

func TestVersion(t *testing.T) {
	output, err := execute(t, "version")
	require.Nil(t, err)
	require.Contains(t, output, "0.1.0")
}

func TestImagePath(t *testing.T) {
	require.Equal(t, "prog.pbc", imagePath("prog.pasm"))
	require.Equal(t, "dir/prog.pbc", imagePath("dir/prog.pasm"))
	require.Equal(t, "prog.pbc", imagePath("prog"))
	require.Equal(t, "dir.v2/prog.pbc", imagePath("dir.v2/prog"))
	require.Equal(t, ".petrel.pbc", imagePath(".petrel"))
}

func TestGetOutput(t *testing.T) {
	viper.Set("no-color", true)

	output, err := getOutput(nil, "")
	require.Nil(t, err)
	require.Equal(t, "", output)

	output, err = getOutput(7.0, "json")
	require.Nil(t, err)
	require.Equal(t, "7", output)

	output, err = getOutput("hi", "text")
	require.Nil(t, err)
	require.Equal(t, "hi", output)

	_, err = getOutput("hi", "yaml")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unknown output format")
}

func TestIsIncompleteInput(t *testing.T) {
	_, err := execute(t, "run", "--code", ".func f 0")
	require.NotNil(t, err)
	require.True(t, isIncompleteInput(err))
}

func TestReplSessionCommands(t *testing.T) {
	color.NoColor = true
	machine, err := petrel.NewVM()
	require.Nil(t, err)
	_, err = machine.Eval(context.Background(), "const 5\ndefglobal x\n")
	require.Nil(t, err)

	session := &replSession{machine: machine}
	session.record("const 5\ndefglobal x")

	old := os.Stdout
	r, w, pipeErr := os.Pipe()
	require.Nil(t, pipeErr)
	os.Stdout = w

	require.False(t, session.command(":globals"))
	require.False(t, session.command(":history"))
	quit := session.command(":quit")

	w.Close()
	os.Stdout = old

	require.True(t, quit)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.Nil(t, err)
	output := buf.String()
	require.Contains(t, output, "x = 5")
	require.Contains(t, output, "defglobal x")
}
