package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new nap project",
	Long: `Initialize a new nap project in the current directory.

This creates:
  - nap.config.yaml - Configuration file
  - .env            - Default variables
  - example.nap     - Example request file

Examples:
  nap init
  nap init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, "nap.config.yaml")
	envFile := filepath.Join(cwd, ".env")
	exampleFile := filepath.Join(cwd, "example.nap")

	if !forceInit {
		for _, f := range []string{configFile, envFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	configContent := map[string]any{
		"timeout":         30000,
		"retries":         0,
		"followRedirects": true,
		"validateSSL":     true,
		"output":          "console",
		"headers": map[string]string{
			"User-Agent": "nap/1.0",
		},
	}

	configYAML, _ := yaml.Marshal(configContent)
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	envContent := `base_url=http://localhost:3000
`
	if err := os.WriteFile(envFile, []byte(envContent), 0644); err != nil {
		return fmt.Errorf("failed to create env file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	exampleContent := `[meta]
name = Health check
description = Check that the API is up
tags = smoke

[request]
method = GET
url = {{base_url}}/health

[assert]
status = 200
duration < 2000ms
body.status = ok
`

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nnap project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'nap run example.nap' to execute the example.\n")

	return nil
}
