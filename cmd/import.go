package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/clearhaul/freight-cli/internal/ingest"
	"github.com/clearhaul/freight-cli/internal/model"
	"github.com/clearhaul/freight-cli/internal/quality"
	"github.com/clearhaul/freight-cli/internal/resolver"
)

var (
	importFilePath  string
	importForwarder string
	importJSON      bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a forwarder spreadsheet, resolving headers to canonical fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		payload, err := ingest.ReadFile(importFilePath)
		if err != nil {
			return eris.Wrap(err, "read source file")
		}
		if len(payload.Headers) == 0 {
			return eris.New("source file has no header row")
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Migrate(ctx); err != nil {
			return err
		}

		res, err := runImport(ctx, e, payload)
		if err != nil {
			return err
		}

		if importJSON {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		printImportResult(res)
		return nil
	},
}

// importResult is what one import run produces, for output and for tests.
type importResult struct {
	Import     model.Import         `json:"import"`
	Resolution *resolver.Resolution `json:"resolution"`
	Report     *quality.Report      `json:"report"`
}

func runImport(ctx context.Context, e *env, payload *ingest.Payload) (*importResult, error) {
	snap, err := e.Dict.LoadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load dictionary snapshot")
	}
	zap.L().Debug("dictionary snapshot loaded", zap.Int("entries", snap.Len()))

	rsv, err := newResolver(e.Dict)
	if err != nil {
		return nil, err
	}

	res, err := rsv.Resolve(ctx, payload.Headers, payload.Sample(cfg.Resolver.SampleRows), snap)
	if err != nil {
		return nil, eris.Wrap(err, "resolve headers")
	}

	imp := model.Import{
		SourceFile:        importFilePath,
		ForwarderName:     importForwarder,
		OverallConfidence: res.OverallConfidence,
		UnitCount:         len(payload.Rows),
	}
	if imp.ForwarderName == "" {
		imp.ForwarderName = res.ForwarderName
	}
	if err := e.Store.CreateImport(ctx, &imp); err != nil {
		return nil, eris.Wrap(err, "create import")
	}

	units, audits := resolver.BuildUnits(res, imp.ID, payload.Rows)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eris.Wrap(e.Store.SaveUnits(gctx, units), "save units")
	})
	g.Go(func() error {
		return eris.Wrap(e.Store.SaveAuditRecords(gctx, audits), "save audit records")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := quality.Score(audits)

	zap.L().Info("import complete",
		zap.String("import_id", imp.ID),
		zap.Int("units", len(units)),
		zap.Float64("confidence", res.OverallConfidence),
		zap.String("grade", string(report.Grade)),
	)

	return &importResult{Import: imp, Resolution: res, Report: report}, nil
}

func printImportResult(res *importResult) {
	p := message.NewPrinter(language.English)
	p.Printf("import %s\n", res.Import.ID)
	p.Printf("  units:      %d\n", res.Import.UnitCount)
	p.Printf("  confidence: %.2f\n", res.Resolution.OverallConfidence)
	p.Printf("  grade:      %s (capture %.0f%%)\n", res.Report.Grade, res.Report.CaptureRate*100)
	if res.Resolution.ForwarderName != "" {
		p.Printf("  format:     %s\n", res.Resolution.ForwarderName)
	}
	if len(res.Resolution.UnmappedHeaders) > 0 {
		p.Printf("  unmapped:   %s\n", strings.Join(res.Resolution.UnmappedHeaders, ", "))
	}
	if res.Report.RecommendImprovement {
		p.Printf("  note: capture below %.0f%%, consider a mapping improvement pass\n", 90.0)
	}
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importForwarder, "forwarder", "", "forwarder name override")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "emit JSON instead of text")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
