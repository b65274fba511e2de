package main

import (
	"os"
	"path"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the rate catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a rate schedule file (csv, yaml, or xlsx) into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		items, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveCatalog(ctx, items); err != nil {
			return err
		}
		zap.L().Info("catalog loaded", zap.String("file", args[0]), zap.Int("items", len(items)))
		return nil
	},
}

var catalogSearchLimit int

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalog items by description",
	Args:  cobra.ExactArgs(1),
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

		return printJSON(cat.Search(args[0], catalogSearchLimit))
	},
}

var catalogFetchOut string

var catalogFetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a rate schedule over http(s) or ftp and load it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		out := catalogFetchOut
		if out == "" {
			out = filepath.Join(os.TempDir(), path.Base(args[0]))
		}

		n, err := newDownloader().DownloadToFile(ctx, args[0], out)
		if err != nil {
			return err
		}
		zap.L().Info("rate schedule downloaded",
			zap.String("url", args[0]),
			zap.String("path", out),
			zap.Int64("bytes", n),
		)

		items, err := catalog.LoadFile(out)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return eris.Errorf("no catalog items in %s", out)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveCatalog(ctx, items); err != nil {
			return err
		}
		zap.L().Info("catalog loaded", zap.Int("items", len(items)))
		return nil
	},
}

func init() {
	catalogSearchCmd.Flags().IntVar(&catalogSearchLimit, "limit", 10, "maximum results")
	catalogFetchCmd.Flags().StringVar(&catalogFetchOut, "out", "", "where to save the downloaded file")

	catalogCmd.AddCommand(catalogLoadCmd, catalogSearchCmd, catalogFetchCmd)
	rootCmd.AddCommand(catalogCmd)
}
