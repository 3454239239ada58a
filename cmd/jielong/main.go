// cmd/jielong/main.go
//
// Command-line entry point. Subcommands:
//   serve   run the HTTP backend
//   import  load idioms into the lexicon database
//   play    play a game in the terminal against the configured opponent
//
// Configuration comes from the environment (and .env); see
// internal/config for every knob and its default.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuchen-lin/jielong/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "jielong",
	Short: "成语接龙 idiom chain game server and CLI",
	Long: `jielong is a two-player Chinese idiom chain (成语接龙) engine.

The human player and an LLM opponent alternate idioms; each idiom must
begin with the final character of the previous one. Run "jielong serve"
for the HTTP backend, or "jielong play" for a terminal game.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the log level. Shared by
// every subcommand.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, keeping default")
	}
	return cfg, nil
}
