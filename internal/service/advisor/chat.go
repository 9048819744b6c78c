package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// ChatHistoryLimit is how many earlier messages go along with a question.
const ChatHistoryLimit = 5

// FallbackReply is shown to the player when the assistant cannot answer.
const FallbackReply = "Sorry, I had trouble processing that. Can you try again?"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Board      domain.Board
	Turn       domain.Color
	MyColor    domain.Color
	Difficulty domain.Difficulty
	History    []ChatMessage
	Question   string
}

// Chat answers a player's question about the current position.
func (a *OpenAIAdvisor) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatPrompt(req)},
	}

	history := req.History
	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Question})

	reply, err := a.complete(ctx, chatTemperature, messages)
	if err != nil {
		return "", err
	}
	return reply, nil
}

func chatPrompt(req ChatRequest) string {
	turn, mine := "None", "None"
	if req.Turn != domain.Empty {
		turn = req.Turn.String()
	}
	if req.MyColor != domain.Empty {
		mine = req.MyColor.String()
	}

	var sb strings.Builder
	sb.WriteString("You are a Connect Four assistant. Read the board carefully and give short, precise advice.\n\n")
	sb.WriteString("Board, top row first (. = empty, R = RED, B = BLUE):\n")
	sb.WriteString(req.Board.String())
	fmt.Fprintf(&sb, "\n\nCurrent turn: %s\nPlayer's color: %s\nDifficulty: %s\n\n", turn, mine, req.Difficulty)
	sb.WriteString("Always point out a move that wins immediately and a move that blocks an immediate loss. ")
	sb.WriteString("Watch for three-in-a-row patterns and setups with two winning paths. ")
	fmt.Fprintf(&sb, "Name recommended moves by column number (0-%d).", domain.Columns-1)
	return sb.String()
}
