package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/clearhaul/freight-cli/internal/quality"
)

var qualityJSON bool

var qualityCmd = &cobra.Command{
	Use:   "quality <import-id>",
	Short: "Grade how completely an import's headers were captured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		imp, err := e.Store.GetImport(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "import %s", args[0])
		}

		records, err := e.Store.ListAuditRecords(ctx, imp.ID)
		if err != nil {
			return eris.Wrap(err, "list audit records")
		}

		report := quality.Score(records)

		if qualityJSON {
			return json.NewEncoder(os.Stdout).Encode(report)
		}

		p := message.NewPrinter(language.English)
		p.Printf("import %s (%s)\n", imp.ID, imp.SourceFile)
		p.Printf("  units:        %d\n", report.Units)
		p.Printf("  fields:       %d mapped / %d total\n", report.MappedFields, report.TotalFields)
		p.Printf("  capture rate: %.1f%%\n", report.CaptureRate*100)
		p.Printf("  confidence:   %.2f\n", report.AvgConfidence)
		p.Printf("  grade:        %s\n", report.Grade)
		if len(report.UnmappedFieldNames) > 0 {
			p.Printf("  unmapped:     %s\n", strings.Join(report.UnmappedFieldNames, ", "))
		}
		if report.RecommendImprovement {
			p.Printf("  recommendation: run another mapping improvement pass\n")
		}
		return nil
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(qualityCmd)
}
