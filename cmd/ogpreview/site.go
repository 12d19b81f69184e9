package main

import (
	"context"
	"fmt"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/spf13/cobra"
)

func newSiteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Inspect and classify stored sites",
	}
	cmd.AddCommand(newSiteShowCmd(opts), newSiteClassifyCmd(opts))
	return cmd
}

func newSiteShowCmd(opts *rootOptions) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Print the latest stored metadata of a site as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := normalizedKey(args[0])
			if err != nil {
				return err
			}
			store, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			latest, err := store.LatestMetadata(ctx, key)
			if err != nil {
				return err
			}
			resp := api.SiteResponse{Success: true, URL: key, IncludeHistory: history, Data: latest}
			if history {
				versions, err := store.ListVersions(ctx, key)
				if err != nil {
					return err
				}
				for _, v := range versions {
					if !v.IsLatest {
						resp.History = append(resp.History, v)
					}
				}
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "include older versions, newest first")
	return cmd
}

func newSiteClassifyCmd(opts *rootOptions) *cobra.Command {
	var c datastore.Classification
	cmd := &cobra.Command{
		Use:   "classify <url>",
		Short: "Set the classification labels of a stored site",
		Long: `Set the classification labels of a stored site. Every label is replaced:
labels left empty are cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := normalizedKey(args[0])
			if err != nil {
				return err
			}
			store, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.UpdateClassification(ctx, key, c); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"success": true, "url": key, "classification": c})
		},
	}
	cmd.Flags().StringVar(&c.Industry, "industry", "", "industry label")
	cmd.Flags().StringVar(&c.Category, "category", "", "category label")
	cmd.Flags().StringVar(&c.Country, "country", "", "country label")
	cmd.Flags().StringVar(&c.Language, "language", "", "language label")
	cmd.Flags().StringVar(&c.CompanySize, "company-size", "", "company size label")
	return cmd
}

func normalizedKey(raw string) (string, error) {
	target, err := urlhandler.Normalize(raw)
	if err != nil {
		return "", err
	}
	return target.String(), nil
}

// openStore opens only the metadata store, without the scraping components.
func (o *rootOptions) openStore(ctx context.Context) (*datastore.Store, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, err
	}
	if !cfg.StorageConfig.Enabled {
		return nil, fmt.Errorf("metadata store is disabled in the configuration")
	}
	return datastore.NewStore(ctx, cfg.StorageConfig.StoreConfig(), log)
}
