package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration (defaults, config.yaml, environment) as YAML. Credentials are redacted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		redacted := *cfg
		if redacted.Marketplace.Password != "" {
			redacted.Marketplace.Password = "<redacted>"
		}
		out, err := yaml.Marshal(redacted)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
