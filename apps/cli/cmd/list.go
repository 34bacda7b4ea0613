package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|folder|playlist>...",
	Short: "List requests and playlist steps without executing",
	Long: `List the requests defined in .nap files and the steps of .naplist
playlists without executing anything.

Examples:
  nap list health.nap
  nap list checkout.naplist
  nap list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .nap or .naplist files found")
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		if strings.EqualFold(filepath.Ext(file), ".naplist") {
			listPlaylist(cmd, out, file)
			continue
		}
		listRequest(cmd, out, file)
	}

	return nil
}

func listPlaylist(cmd *cobra.Command, out io.Writer, file string) {
	pl, err := parser.ParsePlaylistFile(file)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
		return
	}

	fmt.Fprintf(out, "\n%s:\n", file)
	if pl.Name != "" {
		fmt.Fprintf(out, "  name: %s\n", pl.Name)
	}
	if pl.Env != "" {
		fmt.Fprintf(out, "  env: %s\n", pl.Env)
	}
	for _, step := range pl.Steps {
		fmt.Fprintf(out, "  - [%s] %s\n", step.Kind, step.Path)
	}
}

func listRequest(cmd *cobra.Command, out io.Writer, file string) {
	def, err := parser.ParseRequestFile(file)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
		return
	}

	fmt.Fprintf(out, "\n%s:\n", file)
	name := def.Name
	if name == "" {
		name = filepath.Base(file)
	}
	fmt.Fprintf(out, "  - %s: %s %s (%d assertions)\n", name, def.Method, def.URL, len(def.Assertions))
	if len(def.Tags) > 0 {
		fmt.Fprintf(out, "    tags: %v\n", def.Tags)
	}
}
