package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dictJSON bool

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Administer the learned header dictionary",
}

var dictListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned mappings ordered by usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Dict.Migrate(ctx); err != nil {
			return err
		}

		entries, err := e.Dict.List(ctx)
		if err != nil {
			return eris.Wrap(err, "list dictionary")
		}

		if dictJSON {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		p := message.NewPrinter(language.English)
		for _, m := range entries {
			p.Printf("%-36s  %-28s -> %-22s  conf=%.2f  used=%d\n",
				m.ID, m.RawHeader, m.CanonicalField, m.Confidence, m.TimesUsed)
		}
		p.Printf("%d entries\n", len(entries))
		return nil
	},
}

var dictDeleteCmd = &cobra.Command{
	Use:   "delete <mapping-id>",
	Short: "Delete a learned mapping by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Dict.Delete(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "delete mapping %s", args[0])
		}
		zap.L().Info("mapping deleted", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	dictListCmd.Flags().BoolVar(&dictJSON, "json", false, "emit JSON instead of text")
	dictCmd.AddCommand(dictListCmd, dictDeleteCmd)
	rootCmd.AddCommand(dictCmd)
}
