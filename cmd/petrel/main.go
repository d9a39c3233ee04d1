package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "petrel",
	Short: "Petrel is a stack-based bytecode virtual machine",
	Long: `Petrel assembles and executes typed stack-based bytecode.

Run a program from source or from a compiled image, build images,
disassemble code, or start an interactive session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation on a terminal drops into the REPL.
		if isTerminalIO() {
			return runRepl(cmd.Context())
		}
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Optional config file at ~/.petrel.yaml
	viper.AddConfigPath(home)
	viper.SetConfigName(".petrel")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("petrel")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log := logger()
		log.Debug().Str("path", viper.ConfigFileUsed()).Msg("loaded config file")
	}
	processGlobalFlags()
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

// logger returns the CLI logger, writing human-readable events to stderr.
// Debug events are suppressed unless --verbose is set.
func logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: viper.GetBool("no-color")}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
