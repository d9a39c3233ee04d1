package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/petrel-lang/petrel"
	"github.com/spf13/cobra"
)

func init() {
	versionCmd.Flags().StringP("output", "o", "", "Output format (json, text)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if strings.ToLower(format) == "json" {
			info, err := json.MarshalIndent(map[string]any{
				"version": petrel.Version,
				"go":      runtime.Version(),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(info))
			return nil
		}
		fmt.Println(petrel.Version)
		return nil
	},
}
