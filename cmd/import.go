package main

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/estimate-cli/internal/fetcher"
	"github.com/sells-group/estimate-cli/internal/model"
)

var (
	importConcurrency int
	importShowReport  bool
)

type importResult struct {
	Path   string              `json:"path"`
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Parts  int                 `json:"parts"`
	Total  float64             `json:"grand_total"`
	Report *model.ImportReport `json:"report,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx> [more...]",
	Short: "Import estimate workbooks",
	Long:  "Reads each workbook, classifies its sheets, links measurements to abstract items by description similarity, and saves the resulting estimate.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cat, err := loadCatalog(ctx, st)
		if err != nil {
			return err
		}
		res := newResolver(cat)

		concurrency := importConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Import.Concurrency
		}

		var (
			mu      sync.Mutex
			results []importResult
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, path := range args {
			g.Go(func() error {
				sheets, err := fetcher.ReadWorkbook(path)
				if err != nil {
					return err
				}

				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				tree, report, err := res.Resolve(name, sheets)
				if err != nil {
					return eris.Wrapf(err, "resolve %s", path)
				}

				id, err := st.SaveEstimate(gctx, tree)
				if err != nil {
					return err
				}

				r := importResult{
					Path:  path,
					ID:    id,
					Name:  tree.Name,
					Parts: len(tree.Parts),
					Total: tree.General.GrandTotal,
				}
				if importShowReport {
					r.Report = report
				}

				mu.Lock()
				results = append(results, r)
				mu.Unlock()

				zap.L().Info("workbook imported",
					zap.String("path", path),
					zap.String("id", id),
					zap.Int("skipped_sheets", len(report.SkippedSheets)),
				)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		return printJSON(results)
	},
}

func init() {
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "parallel workbook imports (default from config)")
	importCmd.Flags().BoolVar(&importShowReport, "report", false, "include the full import report in the output")
	rootCmd.AddCommand(importCmd)
}
