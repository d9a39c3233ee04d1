package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/petrel-lang/petrel"
	"github.com/petrel-lang/petrel/dis"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(replCmd)
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Each line is assembled and run on
a shared virtual machine, so globals defined in one line are visible to
the next. Type :help for session commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd.Context())
	},
}

func runRepl(ctx context.Context) error {
	machine, err := petrel.NewVM(petrel.WithFilename("<repl>"))
	if err != nil {
		return err
	}

	session := &replSession{machine: machine}
	session.history, session.historyPath = loadHistory()

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("Petrel %s\n", bold("v"+petrel.Version))
	fmt.Println(faint("Type :help for commands, Ctrl-D to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	var pending []string
	for {
		if len(pending) == 0 {
			fmt.Print(">>> ")
		} else {
			fmt.Print("... ")
		}
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := scanner.Text()

		if len(pending) == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				if quit := session.command(trimmed); quit {
					return nil
				}
				continue
			}
		}

		pending = append(pending, line)
		source := strings.Join(pending, "\n")

		result, err := machine.Eval(ctx, source)
		if err != nil {
			if isIncompleteInput(err) {
				continue
			}
			pending = nil
			fmt.Fprintln(os.Stderr, red(formatRuntimeError(err).Error()))
			continue
		}
		pending = nil
		session.record(source)
		printReplResult(result)
	}
}

type replSession struct {
	machine     *petrel.VM
	history     []string
	historyPath string
}

func (s *replSession) record(source string) {
	s.history = append(s.history, source)
	appendToHistory(s.historyPath, source)
}

// isIncompleteInput reports whether the error indicates structurally
// incomplete input that more lines could fix, like an open .func block.
func isIncompleteInput(err error) bool {
	return strings.Contains(err.Error(), "is never closed")
}

// command handles a session command. It returns true when the session
// should end.
func (s *replSession) command(input string) bool {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Println("  :globals        list global bindings")
		fmt.Println("  :dis <code>     disassemble a snippet")
		fmt.Println("  :history        show recent inputs")
		fmt.Println("  :quit           end the session")
	case ":globals", ":g":
		names := s.machine.GlobalNames()
		if len(names) == 0 {
			fmt.Println(faint("  no globals defined"))
			return false
		}
		for _, name := range names {
			obj, err := s.machine.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("  %s = %s\n", name, obj.Inspect())
		}
	case ":history":
		start := len(s.history) - 10
		if start < 0 {
			start = 0
		}
		for _, entry := range s.history[start:] {
			for _, line := range strings.Split(entry, "\n") {
				fmt.Printf("  %s\n", line)
			}
		}
	case ":dis", ":d":
		snippet := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		if snippet == "" {
			fmt.Println(yellow("usage: :dis <code>"))
			return false
		}
		chunk, err := petrel.Assemble(snippet, petrel.WithFilename("<repl>"))
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return false
		}
		if err := dis.Fprint(os.Stdout, chunk); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	default:
		fmt.Println(yellow(fmt.Sprintf("unknown command %s (try :help)", parts[0])))
	}
	return false
}

func printReplResult(result any) {
	if result == nil {
		return
	}
	output, err := getOutput(result, "")
	if err != nil {
		fmt.Printf("%v\n", result)
		return
	}
	if output != "" {
		fmt.Println(output)
	}
}

func loadHistory() ([]string, string) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, ""
	}
	historyPath := filepath.Join(home, ".petrel_history")
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, historyPath
	}
	lines := strings.Split(string(data), "\n")
	history := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			history = append(history, line)
		}
	}
	return history, historyPath
}

func appendToHistory(path, line string) {
	if path == "" || line == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	f.WriteString(line + "\n")
}
