package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/editor"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/store"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Create and edit estimates",
}

var estimateNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an empty estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tree := model.NewEstimateTree(args[0], cfg.SurchargeList())
		id, err := st.SaveEstimate(ctx, tree)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{"id": id, "name": tree.Name})
	},
}

var estimateListName string

var estimateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries, err := st.ListEstimates(ctx, store.ListFilter{Name: estimateListName})
		if err != nil {
			return err
		}
		return printJSON(summaries)
	},
}

var estimateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored estimate",
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
		return printJSON(tree)
	},
}

var estimateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return st.DeleteEstimate(ctx, args[0])
	},
}

// editEstimate loads the estimate, applies fn through an editor, and saves
// the result back.
func editEstimate(ctx context.Context, id string, fn func(*editor.Editor) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	tree, err := st.GetEstimate(ctx, id)
	if err != nil {
		return err
	}

	ed := editor.New(tree)
	if err := fn(ed); err != nil {
		return err
	}
	return st.UpdateEstimate(ctx, id, tree)
}

var addPartCmd = &cobra.Command{
	Use:   "add-part <id> [name]",
	Short: "Add a part (auto-named when no name is given)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			p, err := ed.AddPart(name)
			if err != nil {
				return err
			}
			zap.L().Info("part added", zap.String("part", p.Name))
			return nil
		})
	},
}

var deletePartForce bool

var deletePartCmd = &cobra.Command{
	Use:   "delete-part <id> <name>",
	Short: "Delete a part and its general abstract row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			p := ed.Tree().Part(args[1])
			if p == nil {
				return eris.Wrapf(model.ErrNotFound, "part %q", args[1])
			}
			if !deletePartForce && (len(p.Measurements) > 0 || len(p.Abstracts) > 0) {
				return eris.Wrapf(model.ErrValidation,
					"part %q has items; pass --force to delete anyway", args[1])
			}
			_, err := ed.DeletePart(args[1])
			return err
		})
	},
}

var (
	itemUnit    string
	itemFactors string
	itemQty     float64
	itemRate    float64
)

var addMeasurementCmd = &cobra.Command{
	Use:   "add-measurement <id> <part> <description>",
	Short: "Add a measurement item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		factors, err := parseFactors(itemFactors)
		if err != nil {
			return err
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			item, err := ed.AddMeasurementItem(args[1], args[2], itemUnit, factors)
			if err != nil {
				return err
			}
			zap.L().Info("measurement added",
				zap.Int("item", item.ID),
				zap.Float64("quantity", item.Total),
			)
			return nil
		})
	},
}

var addAbstractCmd = &cobra.Command{
	Use:   "add-abstract <id> <part> <description>",
	Short: "Add an abstract item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			item, err := ed.AddAbstractItem(args[1], args[2], itemUnit, itemQty, itemRate)
			if err != nil {
				return err
			}
			zap.L().Info("abstract item added",
				zap.Int("item", item.ID),
				zap.Float64("amount", item.Amount),
			)
			return nil
		})
	},
}

var setFactorsCmd = &cobra.Command{
	Use:   "set-factors <id> <part> <item> <factors>",
	Short: "Replace a measurement item's dimension factors",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "item id %q", args[2])
		}
		factors, err := parseFactors(args[3])
		if err != nil {
			return err
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			return ed.SetMeasurementFactors(args[1], itemID, factors)
		})
	},
}

var setAbstractCmd = &cobra.Command{
	Use:   "set-abstract <id> <part> <item>",
	Short: "Set an abstract item's quantity and rate",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "item id %q", args[2])
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			return ed.SetAbstractItem(args[1], itemID, itemQty, itemRate)
		})
	},
}

var deleteMeasurementCmd = &cobra.Command{
	Use:   "delete-measurement <id> <part> <item>",
	Short: "Delete a measurement item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "item id %q", args[2])
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			return ed.DeleteMeasurementItem(args[1], itemID)
		})
	},
}

var deleteAbstractCmd = &cobra.Command{
	Use:   "delete-abstract <id> <part> <item>",
	Short: "Delete an abstract item and remap links",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "item id %q", args[2])
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			return ed.DeleteAbstractItem(args[1], itemID)
		})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <id> <part> <measurement> <abstract>",
	Short: "Link a measurement to an abstract item (0 unlinks)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		mID, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "measurement id %q", args[2])
		}
		aID, err := strconv.Atoi(args[3])
		if err != nil {
			return eris.Wrapf(model.ErrValidation, "abstract id %q", args[3])
		}
		return editEstimate(cmd.Context(), args[0], func(ed *editor.Editor) error {
			return ed.LinkMeasurement(args[1], mID, aID)
		})
	},
}

// parseFactors parses a comma-separated factor list like "1,10,5,3".
func parseFactors(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	factors := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(model.ErrValidation, "factor %q", p)
		}
		factors = append(factors, v)
	}
	return factors, nil
}

func init() {
	estimateListCmd.Flags().StringVar(&estimateListName, "name", "", "filter by name substring")
	deletePartCmd.Flags().BoolVar(&deletePartForce, "force", false, "delete even when the part has items")

	addMeasurementCmd.Flags().StringVar(&itemUnit, "unit", "", "unit of measurement")
	addMeasurementCmd.Flags().StringVar(&itemFactors, "factors", "", `dimension factors, e.g. "1,10,5,3"`)
	addAbstractCmd.Flags().StringVar(&itemUnit, "unit", "", "unit of measurement")
	addAbstractCmd.Flags().Float64Var(&itemQty, "quantity", 0, "quantity (ignored once linked)")
	addAbstractCmd.Flags().Float64Var(&itemRate, "rate", 0, "unit rate")
	setAbstractCmd.Flags().Float64Var(&itemQty, "quantity", 0, "quantity (ignored while linked)")
	setAbstractCmd.Flags().Float64Var(&itemRate, "rate", 0, "unit rate")

	estimateCmd.AddCommand(estimateNewCmd, estimateListCmd, estimateShowCmd, estimateDeleteCmd,
		addPartCmd, deletePartCmd, addMeasurementCmd, addAbstractCmd,
		setFactorsCmd, setAbstractCmd, deleteMeasurementCmd, deleteAbstractCmd, linkCmd)
	rootCmd.AddCommand(estimateCmd)
}
