package cmd

import (
	"fmt"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/import/openapi"
	"github.com/spf13/cobra"
)

var (
	importOutFlag         string
	importBaseURLFlag     string
	importTagsFlag        string
	importExcludeTagsFlag string
	importNoTestsFlag     bool
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Import API specs and convert them to nap files",
	Long: `Import an API specification and convert it to nap files.

Supported formats:
  openapi - OpenAPI 3.0/3.1 (YAML or JSON)

Examples:
  nap import openapi spec.yaml
  nap import openapi spec.yaml --out tests/
  nap import openapi https://petstore.example.com/openapi.json`,
}

var importOpenAPICmd = &cobra.Command{
	Use:   "openapi <spec-file-or-url>",
	Short: "Import from an OpenAPI/Swagger specification",
	Long: `Import from an OpenAPI 3.0/3.1 specification file or URL.

The command generates one .nap file per operation plus an api.naplist
playlist covering all of them.

Examples:
  nap import openapi spec.yaml
  nap import openapi spec.yaml --out tests/api
  nap import openapi spec.yaml --tags users,auth --base-url http://localhost:3000
  nap import openapi spec.yaml --no-tests`,
	Args: cobra.ExactArgs(1),
	RunE: importOpenAPICommand,
}

func init() {
	importOpenAPICmd.Flags().StringVarP(&importOutFlag, "out", "o", ".", "Output directory for generated files")
	importOpenAPICmd.Flags().StringVar(&importBaseURLFlag, "base-url", "", "Override base URL from spec")
	importOpenAPICmd.Flags().StringVar(&importTagsFlag, "tags", "", "Filter operations by tags (comma-separated)")
	importOpenAPICmd.Flags().StringVar(&importExcludeTagsFlag, "exclude-tags", "", "Exclude operations with these tags (comma-separated)")
	importOpenAPICmd.Flags().BoolVar(&importNoTestsFlag, "no-tests", false, "Don't generate assertions")

	importCmd.AddCommand(importOpenAPICmd)
}

func importOpenAPICommand(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	var opts []openapi.Option
	if importBaseURLFlag != "" {
		opts = append(opts, openapi.WithBaseURL(importBaseURLFlag))
	}
	if tags := splitCommaList(importTagsFlag); len(tags) > 0 {
		opts = append(opts, openapi.WithTags(tags))
	}
	if tags := splitCommaList(importExcludeTagsFlag); len(tags) > 0 {
		opts = append(opts, openapi.WithExcludeTags(tags))
	}
	if importNoTestsFlag {
		opts = append(opts, openapi.WithTests(false))
	}

	converter := openapi.NewConverter(opts...)

	written, err := converter.ConvertToDir(specPath, importOutFlag)
	if err != nil {
		return fmt.Errorf("failed to convert OpenAPI spec: %w", err)
	}

	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'nap run %s' to execute the generated playlist.\n",
		written[len(written)-1])

	return nil
}

func splitCommaList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
