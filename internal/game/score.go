// internal/game/score.go
//
// Scoring engine: a pure function of the final game statistics.
// A loss short-circuits to a zero breakdown. A win scores
//   floor((base + idiom bonus + time bonus) × difficulty multiplier)
// minus the hint penalty (floored at 0), plus independent special bonuses.
// The letter rating is satisfied by either the score or the word count
// crossing its bar, highest first.

package game

import "fmt"

// Scoring constants.
const (
	baseScorePerIdiom  = 10
	bonusPerIdiom      = 5
	timeBonusPerSecond = 0.1
	hintPenaltyEach    = 15
	noHintBonus        = 20
	speedBonus         = 30
	speedBonusUnder    = 30 // seconds
	perfectGameBonus   = 100
)

// ScoreBreakdown reports every intermediate scoring term.
type ScoreBreakdown struct {
	TotalScore           int      `json:"totalScore"`
	IsWinner             bool     `json:"isWinner"`
	BaseScore            int      `json:"baseScore"`
	IdiomBonus           int      `json:"idiomBonus"`
	TimeBonus            int      `json:"timeBonus"`
	HintPenalty          int      `json:"hintPenalty"`
	DifficultyMultiplier float64  `json:"difficultyMultiplier"`
	SpecialBonuses       []string `json:"specialBonuses,omitempty"`
	Rating               string   `json:"rating,omitempty"`
	PlayerIdioms         int      `json:"playerIdioms"`
	OpponentIdioms       int      `json:"opponentIdioms"`
	Duration             int      `json:"duration"`
	Message              string   `json:"message"`
}

func difficultyMultiplier(difficulty string) float64 {
	switch difficulty {
	case DifficultyEasy:
		return 1.0
	case DifficultyNormal:
		return 1.5
	case DifficultyHard:
		return 2.0
	default:
		return 1.0
	}
}

// Score computes the breakdown for a finished game.
func Score(result Result, difficulty string, hintsUsed, timeRemaining int) ScoreBreakdown {
	if result.Winner != WinnerPlayer {
		return ScoreBreakdown{
			TotalScore: 0,
			IsWinner:   false,
			Message:    "很遗憾，你输了！",
		}
	}

	base := result.PlayerWordCount * baseScorePerIdiom
	idiomBonus := result.PlayerWordCount * bonusPerIdiom
	timeBonus := float64(timeRemaining) * timeBonusPerSecond
	mult := difficultyMultiplier(difficulty)
	hintPenalty := hintsUsed * hintPenaltyEach

	total := int((float64(base) + float64(idiomBonus) + timeBonus) * mult)
	total -= hintPenalty
	if total < 0 {
		total = 0
	}

	var bonuses []string
	if hintsUsed == 0 {
		total += noHintBonus
		bonuses = append(bonuses, fmt.Sprintf("无提示奖励 +%d", noHintBonus))
	}
	if result.DurationSeconds < speedBonusUnder {
		total += speedBonus
		bonuses = append(bonuses, fmt.Sprintf("快速获胜奖励 +%d", speedBonus))
	}
	if result.OpponentWordCount == 0 {
		total += perfectGameBonus
		bonuses = append(bonuses, fmt.Sprintf("完美游戏奖励 +%d", perfectGameBonus))
	}

	rating := ratingFor(total, result.PlayerWordCount)
	return ScoreBreakdown{
		TotalScore:           total,
		IsWinner:             true,
		BaseScore:            base,
		IdiomBonus:           idiomBonus,
		TimeBonus:            int(timeBonus),
		HintPenalty:          hintPenalty,
		DifficultyMultiplier: mult,
		SpecialBonuses:       bonuses,
		Rating:               rating,
		PlayerIdioms:         result.PlayerWordCount,
		OpponentIdioms:       result.OpponentWordCount,
		Duration:             result.DurationSeconds,
		Message:              victoryMessage(rating, total),
	}
}

// ratingFor grades by score or word count, whichever clears the bar.
func ratingFor(score, idiomCount int) string {
	switch {
	case score >= 200 || idiomCount >= 10:
		return "S"
	case score >= 150 || idiomCount >= 7:
		return "A"
	case score >= 100 || idiomCount >= 5:
		return "B"
	case score >= 50 || idiomCount >= 3:
		return "C"
	default:
		return "D"
	}
}

func victoryMessage(rating string, score int) string {
	switch rating {
	case "S":
		return fmt.Sprintf("太厉害了！S级评价！得分：%d", score)
	case "A":
		return fmt.Sprintf("很棒！A级评价！得分：%d", score)
	case "B":
		return fmt.Sprintf("不错！B级评价！得分：%d", score)
	case "C":
		return fmt.Sprintf("还可以，继续努力！C级评价，得分：%d", score)
	default:
		return fmt.Sprintf("再接再厉！D级评价，得分：%d", score)
	}
}
