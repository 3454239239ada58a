// cmd/jielong/play.go
//
// The play subcommand: an interactive terminal game against the
// configured opponent, driving the engine directly (no HTTP).
//
// Input commands besides an idiom:
//   提示 / hint  consume one hint
//   认输 / quit  forfeit

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuchen-lin/jielong/internal/game"
	"github.com/yuchen-lin/jielong/internal/idiom"
	"github.com/yuchen-lin/jielong/internal/lexicon"
	"github.com/yuchen-lin/jielong/internal/llm"
)

var (
	playDifficulty string
	playMode       string
	playHomophone  bool
	playStart      string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play 成语接龙 in the terminal",
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

		gcfg := game.Config{
			Difficulty:     cfg.GameDifficulty,
			TimeLimit:      cfg.GameTimeLimit,
			AllowHomophone: cfg.GameAllowHomophone || playHomophone,
			MaxHints:       cfg.GameMaxHints,
		}
		switch playDifficulty {
		case game.DifficultyEasy, game.DifficultyNormal, game.DifficultyHard:
			gcfg.Difficulty = playDifficulty
		case "":
		default:
			return fmt.Errorf("invalid difficulty %q", playDifficulty)
		}

		client := llm.New(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout)
		var validator game.Validator
		if playMode == "llm" {
			validator = game.NewLLMValidator(client)
		} else {
			validator = game.NewDictionaryValidator(lex)
		}

		eng := game.NewEngine(gcfg, lex, validator, client)
		eng.OnOpponentThinking = func() { fmt.Println("AI思考中…") }

		start, err := eng.Start(cmd.Context(), playStart)
		if err != nil {
			return err
		}
		fmt.Printf("游戏开始！难度：%s，起始成语：%s\n", gcfg.Difficulty, start)
		fmt.Printf("请接以 '%s' 开头的成语（提示/认输）\n", idiom.LastRune(start))

		sc := bufio.NewScanner(os.Stdin)
		for {
			snap := eng.Snapshot()
			if snap.Over {
				break
			}
			if gcfg.TimeLimit > 0 && eng.TimeRemaining() == 0 {
				eng.End(game.WinnerOpponent, game.ReasonTimeout)
				break
			}

			fmt.Printf("[第%d轮] > ", snap.Round+1)
			if !sc.Scan() {
				eng.Forfeit()
				break
			}
			input := strings.TrimSpace(sc.Text())

			switch input {
			case "":
				continue
			case "提示", "hint":
				if h := eng.UseHint(cmd.Context()); h != "" {
					fmt.Printf("提示：%s（剩余 %d 次）\n", h, eng.Snapshot().HintsRemaining)
				} else {
					fmt.Println("没有可用的提示")
				}
				continue
			case "认输", "quit":
				eng.Forfeit()
				continue
			}

			verdict := eng.SubmitPlayerMove(cmd.Context(), input)
			if !verdict.Valid {
				fmt.Printf("无效：%s\n", verdict.Reason)
				continue
			}
			if winner, over := eng.CheckGameOver(cmd.Context()); over {
				eng.End(winner, game.ReasonCannotContinue)
				continue
			}

			word, err := eng.RequestOpponentMove(cmd.Context())
			if err != nil {
				fmt.Printf("对手出错：%v\n", err)
				continue
			}
			if word != "" {
				fmt.Printf("AI：%s\n", word)
				if winner, over := eng.CheckGameOver(cmd.Context()); over {
					eng.End(winner, game.ReasonCannotContinue)
				}
			}
		}

		printResult(eng)
		return nil
	},
}

// printResult shows the final result and, for a player win, the score
// breakdown.
func printResult(eng *game.Engine) {
	snap := eng.Snapshot()
	if snap.Result == nil {
		return
	}
	r := snap.Result
	fmt.Printf("\n游戏结束：%s（共%d轮，你接了%d个成语）\n", r.EndReason, r.TotalRounds, r.PlayerWordCount)

	score := eng.FinalScore()
	fmt.Println(score.Message)
	if r.Winner == game.WinnerPlayer {
		fmt.Printf("得分：%d（评级 %s）\n", score.TotalScore, score.Rating)
		for _, b := range score.SpecialBonuses {
			fmt.Printf("  %s\n", b)
		}
	}
}

func init() {
	playCmd.Flags().StringVar(&playDifficulty, "difficulty", "", "easy|normal|hard (default from env)")
	playCmd.Flags().StringVar(&playMode, "mode", "dictionary", "validation mode: dictionary|llm")
	playCmd.Flags().BoolVar(&playHomophone, "homophone", false, "allow homophone chaining")
	playCmd.Flags().StringVar(&playStart, "start", "", "fixed starting idiom")
	rootCmd.AddCommand(playCmd)
}
