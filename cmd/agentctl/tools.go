package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the configured agent resolved",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		def := rt.agent.Definition()
		fmt.Printf("%s: %s\n", def.Name, def.Description)
		for _, name := range rt.agent.ToolNames() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}
