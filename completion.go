package mischief

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
)

// ErrEmptyCompletion 表示接口返回了空的 choices
var ErrEmptyCompletion = errors.New("empty completion")

// Profile 是一类请求固定使用的模型参数
type Profile struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// CompletionRequest 是一次补全请求
type CompletionRequest struct {
	Profile
	Messages userChatHistory
	// ImageURL 非空时会附加到最后一条用户消息上
	ImageURL string
}

// Completion 是补全结果和本次消耗的Token
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Completer 调用远端的语言模型
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// OpenAICompleter 通过 OpenAI Chat Completions 接口实现 Completer
type OpenAICompleter struct {
	client *openai.Client
}

func NewOpenAICompleter(client *openai.Client) *OpenAICompleter {
	return &OpenAICompleter{client: client}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    buildCompletionMessages(req.Messages, req.ImageURL),
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(req.MaxTokens),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	return &Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
