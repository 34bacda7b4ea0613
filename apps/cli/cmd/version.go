package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var versionJSONFlag bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSONFlag {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
				"version": version,
				"built":   buildTime,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "nap version %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildTime)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSONFlag, "json", false, "Print version information as JSON")
}
