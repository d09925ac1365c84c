package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/office-atlas/atlas-cli/internal/config"
	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/normalize"
	"github.com/office-atlas/atlas-cli/internal/pipeline"
	"github.com/office-atlas/atlas-cli/internal/source"
)

var (
	scrapeOnly   []string
	scrapeDryRun bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all configured sources and merge into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		specs, err := config.LoadSources(cfg.SourcesFile)
		if err != nil {
			return err
		}
		specs = filterSpecs(specs, scrapeOnly)
		if len(specs) == 0 {
			return eris.New("no sources selected")
		}

		httpF := fetcher.NewHTTP(fetcher.HTTPOptions{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			PageDelay: time.Duration(cfg.Fetch.PageDelaySecs) * time.Second,
		})

		var browserF fetcher.Fetcher
		if !cfg.Fetch.DisableBrowser {
			bf := fetcher.NewBrowser(fetcher.BrowserOptions{
				UserAgent: cfg.Fetch.UserAgent,
				PageDelay: time.Duration(cfg.Fetch.PageDelaySecs) * time.Second,
				ExecPath:  cfg.Fetch.ChromePath,
			})
			defer bf.Close()
			browserF = bf
		}

		sources := source.Build(specs, httpF, browserF)
		if len(sources) == 0 {
			return eris.New("no sources enabled")
		}

		store, err := initRepo(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		p := &pipeline.Pipeline{
			Sources:     sources,
			Normalizer:  normalize.New(newResolver()),
			Repo:        store,
			ThresholdKM: cfg.Dedupe.ThresholdKM,
			DryRun:      scrapeDryRun,
		}

		summary, err := p.Run(ctx)
		if err != nil {
			return err
		}
		reportRun(summary)
		return nil
	},
}

// reportRun prints the run summary and records a non-zero exit code when any
// source failed, after every source has been attempted.
func reportRun(s *pipeline.Summary) {
	printSummary(s)
	if s.Failed() {
		exitCode = 1
	}
}

// filterSpecs restricts specs to the named sources; empty means all.
func filterSpecs(specs []source.Spec, only []string) []source.Spec {
	if len(only) == 0 {
		return specs
	}
	keep := make(map[string]bool, len(only))
	for _, name := range only {
		keep[name] = true
	}
	var out []source.Spec
	for _, spec := range specs {
		if keep[spec.Name] {
			out = append(out, spec)
		}
	}
	return out
}

func printSummary(s *pipeline.Summary) {
	for _, st := range s.PerSource {
		fmt.Printf("%-22s raw=%-4d normalized=%d\n", st.Source, st.Raw, st.Normalized)
	}
	fmt.Printf("prior=%d collected=%d merged=%d saved=%v\n", s.Prior, s.Collected, s.Merged, s.Saved)
	for _, e := range s.Errors {
		fmt.Fprintf(os.Stderr, "source %s failed: %v\n", e.Source, e.Err)
	}
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeOnly, "source", nil, "scrape only the named sources")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "run without saving the merged result")
	rootCmd.AddCommand(scrapeCmd)
}
