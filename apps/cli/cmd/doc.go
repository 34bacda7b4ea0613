// Package cmd implements the nap CLI commands using Cobra.
//
// Available commands:
//   - run: Execute .nap files, folders and .naplist playlists
//   - validate: Check file syntax without executing
//   - list: Display requests and playlist steps
//   - diff: Compare two JSON run reports
//   - import: Generate nap files from an OpenAPI spec
//   - init: Create a new nap project with example files
//   - version: Show nap version information
//
// Flags fall back to NAP_* environment variables, and run supports watch
// mode for development workflows.
package cmd
