package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an estimate to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tree, err := st.GetEstimate(ctx, args[0])
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			out := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return eris.Wrapf(err, "create %s", exportOut)
				}
				defer f.Close()
				out = f
			}
			if err := export.WriteCSV(out, tree); err != nil {
				return err
			}
		case "xlsx":
			if exportOut == "" {
				return eris.New("--out is required for xlsx export")
			}
			if err := export.WriteXLSX(exportOut, tree); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown export format %q", exportFormat)
		}

		if exportOut != "" {
			zap.L().Info("estimate exported",
				zap.String("id", args[0]),
				zap.String("format", exportFormat),
				zap.String("path", exportOut),
			)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (stdout for csv when omitted)")
	rootCmd.AddCommand(exportCmd)
}
