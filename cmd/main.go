/*
toolsmith turns natural-language prompts into small themed SEO tools.

Usage:

	toolsmith [command]

Available Commands:

	serve       Run the HTTP API (default)
	history     List or clear generated tools
	classify    Print the tool type a prompt classifies as
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"toolsmith_server/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "toolsmith",
		Short: "Generate, build and serve prompt-driven SEO tools",
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newHistoryCmd(&configPath))
	rootCmd.AddCommand(newClassifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads .env first so viper sees its variables, then the config.
func loadConfig(path string) (config.Config, error) {
	err := godotenv.Load()
	if err != nil {
		// It's common for .env to not exist (e.g., in production).
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		} else {
			log.Println("Info: .env file not found, relying on system environment variables.")
		}
	} else {
		log.Println("Info: Loaded environment variables from .env file.")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}
