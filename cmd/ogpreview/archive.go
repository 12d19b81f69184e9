package main

import (
	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var failedOnly bool
	cmd := &cobra.Command{
		Use:   "archive <file.parquet>",
		Short: "Print the rows of a bulk run archive as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := datastore.ReadArchive(args[0])
			if err != nil {
				return err
			}
			if failedOnly {
				kept := rows[:0]
				for _, row := range rows {
					if !row.Success {
						kept = append(kept, row)
					}
				}
				rows = kept
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only print failed URLs")
	return cmd
}
