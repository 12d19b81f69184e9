package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a single URL and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := opts.buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Service.ScrapeOne(ctx, args[0])
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("scrape failed: %s", result.Error)
			}
			return nil
		},
	}
}
