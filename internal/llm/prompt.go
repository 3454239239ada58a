// internal/llm/prompt.go
//
// Prompt construction for the two request kinds the game makes:
//   - generation: "give me an idiom starting with X" (difficulty-tempered)
//   - judgment:   "is this a valid idiom / does it chain?" (near-greedy,
//     single-token yes/no)
//
// Prompts are deterministic given their inputs; at most the 10 most recent
// used idioms are included as an exclusion hint.

package llm

import (
	"context"
	"fmt"
	"strings"
)

const generateSystemPrompt = `你是一个成语接龙专家。你的任务是根据给定的字，说出一个以该字开头的中文成语。

要求：
1. 只返回成语本身（4个字），不要任何解释或其他内容
2. 确保成语准确有效，是常见的中文成语
3. 避免使用过于生僻或不符合规范的成语
4. 不要使用已经使用过的成语

请严格按照要求回答，只输出成语的4个字。`

// temperatureFor maps difficulty to sampling temperature: easy favors
// variety, hard favors the model's strongest candidate.
func temperatureFor(difficulty string) float64 {
	switch difficulty {
	case "easy":
		return 0.9
	case "hard":
		return 0.3
	default:
		return 0.7
	}
}

// maxRecentExclusions caps how many used idioms the prompt mentions.
const maxRecentExclusions = 10

// GenerateMessages builds the generation prompt for a move starting with
// char. used is the accepted-move history in order; only the tail is sent.
func GenerateMessages(char, difficulty string, used []string) ([]Message, float64) {
	var user string
	if len(used) > 0 {
		recent := used
		if len(recent) > maxRecentExclusions {
			recent = recent[len(recent)-maxRecentExclusions:]
		}
		user = fmt.Sprintf("请用'%s'字开头接一个成语。\n\n已使用的成语（请避免使用）：\n%s",
			char, strings.Join(recent, "、"))
	} else {
		user = fmt.Sprintf("请用'%s'字开头接一个成语", char)
	}
	return []Message{
		{Role: "system", Content: generateSystemPrompt},
		{Role: "user", Content: user},
	}, temperatureFor(difficulty)
}

// JudgeMessages builds the judgment prompt. With no previous word only
// lexical validity is asked; otherwise validity and the chain rule are
// asked jointly. The model is instructed to answer 是/否 and nothing else.
func JudgeMessages(word, prev string, allowHomophone bool) []Message {
	if prev == "" {
		return []Message{
			{Role: "system", Content: `你是一个成语专家。请判断用户输入的成语是否有效。

验证标准：
1. 必须是一个有效的中文成语（四字词语）
2. 只回答"是"或"否"
3. 不要任何解释`},
			{Role: "user", Content: fmt.Sprintf(`"%s" 是一个有效的中文成语吗？请只回答"是"或"否"。`, word)},
		}
	}

	homophoneHint := ""
	if allowHomophone {
		homophoneHint = "或同音字"
	}
	system := fmt.Sprintf(`你是一个成语接龙专家。请验证用户的成语是否有效。

验证标准：
1. 用户输入的成语必须是一个有效的中文成语
2. 用户成语的第一个字必须与前一个成语的最后一个字相同%s
3. 只回答"是"或"否"
4. 不要任何解释`, homophoneHint)
	user := fmt.Sprintf(`前一个成语：%s
用户成语：%s

请判断：
1. "%s" 是一个有效的成语吗？
2. "%s" 能接 "%s" 吗？

请只回答"是"或"否"。`, prev, word, word, word, prev)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

const (
	judgeTemperature = 0.1
	judgeMaxTokens   = 10
	generateTokens   = 50
)

// GenerateIdiom asks the backend for a chain move starting with char and
// extracts the idiom from its free-text reply.
func (c *Client) GenerateIdiom(ctx context.Context, char, difficulty string, used []string) (string, error) {
	msgs, temp := GenerateMessages(char, difficulty, used)
	reply, err := c.Chat(ctx, msgs, temp, generateTokens)
	if err != nil {
		return "", err
	}
	return ExtractIdiom(reply), nil
}

// Judge asks the backend for a validity verdict and returns the raw reply
// text. Parsing into a verdict is the validator's job.
func (c *Client) Judge(ctx context.Context, word, prev string, allowHomophone bool) (string, error) {
	return c.Chat(ctx, JudgeMessages(word, prev, allowHomophone), judgeTemperature, judgeMaxTokens)
}
