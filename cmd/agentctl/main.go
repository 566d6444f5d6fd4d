package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentctl",
		Short: "agentctl runs and inspects configured agents",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("agentctl: %v", err)
		os.Exit(1)
	}
}

var configPath string
