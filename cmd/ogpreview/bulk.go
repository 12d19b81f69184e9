package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/spf13/cobra"
)

type bulkOptions struct {
	file        string
	concurrency int
}

func newBulkCmd(opts *rootOptions) *cobra.Command {
	bulk := &bulkOptions{}
	cmd := &cobra.Command{
		Use:   "bulk [urls...]",
		Short: "Scrape many URLs in batches and print a summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if bulk.file != "" {
				fromFile, err := readURLFile(bulk.file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given: pass them as arguments or with --file")
			}

			ctx := cmd.Context()
			a, log, err := opts.buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			concurrency := bulk.concurrency
			if concurrency == 0 {
				concurrency = a.Config.ScraperConfig.DefaultConcurrency
			}

			a.ResourceLimiter.Start()
			defer a.ResourceLimiter.Stop()

			start := time.Now()
			results := a.Service.ScrapeMany(ctx, urls, concurrency)
			stats := a.Service.Statistics(results, time.Since(start))
			log.Info().
				Int("successful", stats.Successful).
				Int("failed", stats.Failed).
				Int64("total_ms", stats.TotalProcessingTime).
				Msg("Bulk run finished")

			return printJSON(cmd.OutOrStdout(), api.BulkScrapeResponse{
				Success:    true,
				TotalURLs:  len(urls),
				UniqueURLs: len(results),
				Results:    results,
				Statistics: stats,
			})
		},
	}
	cmd.Flags().StringVarP(&bulk.file, "file", "f", "", "file with one URL per line (# starts a comment)")
	cmd.Flags().IntVarP(&bulk.concurrency, "concurrency", "c", 0, "URLs scraped in parallel per batch (1-10)")
	return cmd
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()
	return parseURLList(f)
}

// parseURLList returns the non-empty, non-comment lines of r.
func parseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}
