// cmd/jielong/serve.go
//
// The serve subcommand: open the lexicon and application databases, run
// migrations, construct the LLM client, and start the HTTP server.

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuchen-lin/jielong/internal/db"
	"github.com/yuchen-lin/jielong/internal/httpserver"
	"github.com/yuchen-lin/jielong/internal/lexicon"
	"github.com/yuchen-lin/jielong/internal/llm"
	"github.com/yuchen-lin/jielong/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the jielong HTTP backend",
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
		if n, err := lex.TotalCount(cmd.Context()); err == nil {
			if n == 0 {
				log.Warn().Str("path", cfg.LexiconPath).Msg("lexicon is empty; run `jielong import` first")
			} else {
				log.Info().Int("idioms", n).Msg("lexicon loaded")
			}
		}

		appDB, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer appDB.Close()
		if err := db.Migrate(appDB, cfg.MigrationDir); err != nil {
			return err
		}

		client := llm.New(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout)
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		if client.Ping(pingCtx) {
			log.Info().Str("baseURL", cfg.LLMBaseURL).Msg("LLM backend reachable")
		} else {
			log.Warn().Str("baseURL", cfg.LLMBaseURL).Msg("LLM backend unreachable; llm-mode games will fail over to the player")
		}
		cancel()

		srv := httpserver.New(cfg, store.NewMemoryStore(), lex, client, appDB)
		log.Info().Str("port", cfg.Port).Msg("starting jielong server")
		return srv.Start(":" + cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
