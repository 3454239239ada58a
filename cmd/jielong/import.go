// cmd/jielong/import.go
//
// The import subcommand: bulk-load idioms from a CSV-ish text file into
// the lexicon database. Lines are `word,pinyin,explanation,example`;
// only the word is required, pinyin is derived when absent.

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuchen-lin/jielong/internal/lexicon"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import idioms into the lexicon database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lex, err := lexicon.Open(cfg.LexiconPath)
		if err != nil {
			return err
		}
		defer lex.Close()

		added, err := lex.ImportFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		total, _ := lex.TotalCount(cmd.Context())
		log.Info().Int("added", added).Int("total", total).Msg("import finished")
		fmt.Printf("导入完成：新增 %d 条，词库共 %d 条成语\n", added, total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
