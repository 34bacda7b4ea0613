package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|folder>...",
	Short: "Validate nap files for syntax errors",
	Long: `Validate .nap and .naplist files for syntax errors without executing them.

Examples:
  nap validate health.nap
  nap validate checkout.naplist
  nap validate ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .nap or .naplist files found")
	}

	hasErrors := false
	for _, file := range files {
		warnings, err := validateFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		for _, w := range warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	return nil
}

func validateFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".naplist") {
		_, err := parser.ParsePlaylistFile(path)
		return nil, err
	}
	def, err := parser.ParseRequestFile(path)
	if err != nil {
		return nil, err
	}
	return def.Warnings, nil
}

// collectFiles expands the arguments into a sorted list of nap files,
// walking directories recursively.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isNapFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isNapFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nap", ".naplist":
		return true
	}
	return false
}
