package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"toolsmith_server/internal/classifier"
	"toolsmith_server/internal/store"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or clear generated tools",
	}

	var jsonOutput bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the most recent tools, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withToolStore(*configPath, func(tools *store.ToolStore) error {
				return runHistoryList(cmd.Context(), tools, jsonOutput)
			})
		},
	}
	list.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tools and their themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withToolStore(*configPath, func(tools *store.ToolStore) error {
				if err := tools.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("History cleared.")
				return nil
			})
		},
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}

func withToolStore(configPath string, fn func(*store.ToolStore) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("could not open tool store: %w", err)
	}
	defer kv.Close()
	return fn(store.NewToolStore(kv))
}

func runHistoryList(ctx context.Context, tools *store.ToolStore, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	history, err := tools.History(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	if len(history) == 0 {
		fmt.Println("No tools generated yet.")
		return nil
	}
	fmt.Printf("Generated tools (%d):\n\n", len(history))
	for _, e := range history {
		fmt.Printf("  %s  %-10s %s\n", e.ID, e.ToolConfig.ToolType, e.ToolConfig.Title)
		fmt.Printf("    Date:   %s\n", e.Date)
		fmt.Printf("    Theme:  %s (%s)\n", e.Customizations.UITemplate, e.Customizations.Branding.BrandName)
	}
	return nil
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <prompt>",
		Short:   "Print the tool type a prompt classifies as",
		Example: `  toolsmith classify "Generate meta tags for a local plumbing business"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(classifier.Classify(strings.Join(args, " ")))
			return nil
		},
	}
}
