package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/clearhaul/freight-cli/internal/director"
	"github.com/clearhaul/freight-cli/internal/model"
)

var (
	riskSave bool
	riskJSON bool
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Evaluate demurrage and detention risk",
}

var riskUnitCmd = &cobra.Command{
	Use:   "unit <unit-id>",
	Short: "Evaluate one unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		unit, err := e.Store.GetUnit(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "unit %s", args[0])
		}

		a := director.EvaluateNow(unit)
		if riskSave {
			if err := e.Store.SaveAssessment(ctx, &a); err != nil {
				return eris.Wrap(err, "save assessment")
			}
		}

		if riskJSON {
			return json.NewEncoder(os.Stdout).Encode(a)
		}
		printAssessment(&a)
		return nil
	},
}

var riskImportCmd = &cobra.Command{
	Use:   "import <import-id>",
	Short: "Evaluate every unit of an import",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		units, err := e.Store.ListUnits(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "list units for import %s", args[0])
		}
		if len(units) == 0 {
			return eris.Errorf("no units for import %s", args[0])
		}

		assessments := make([]model.Assessment, 0, len(units))
		for i := range units {
			a := director.EvaluateNow(&units[i])
			if riskSave {
				if err := e.Store.SaveAssessment(ctx, &a); err != nil {
					zap.L().Warn("save assessment failed",
						zap.String("unit_id", a.UnitID),
						zap.Error(err),
					)
				}
			}
			assessments = append(assessments, a)
		}

		if riskJSON {
			return json.NewEncoder(os.Stdout).Encode(assessments)
		}
		for i := range assessments {
			printAssessment(&assessments[i])
		}
		return nil
	},
}

func printAssessment(a *model.Assessment) {
	p := message.NewPrinter(language.English)
	p.Printf("%s  [%s] %s\n", a.UnitID, a.Mode, a.Headline)
	if a.ActionRequired {
		p.Printf("  action required\n")
	}
	if a.ShowCharges {
		p.Printf("  charges: $%.2f (%d days overdue at $%.0f/day, %s)\n",
			a.Demurrage.Total, a.Demurrage.DaysOverdue, a.Demurrage.DailyRate, a.Demurrage.Status)
	}
}

func init() {
	riskCmd.PersistentFlags().BoolVar(&riskSave, "save", false, "persist assessments")
	riskCmd.PersistentFlags().BoolVar(&riskJSON, "json", false, "emit JSON instead of text")
	riskCmd.AddCommand(riskUnitCmd, riskImportCmd)
	rootCmd.AddCommand(riskCmd)
}
