package mischief

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/tidwall/gjson"
)

// buildCompletionMessages 把会话历史转换成 OpenAI 的消息, imageURL 非空时附加到最后一条用户消息
func buildCompletionMessages(histories userChatHistory, imageURL string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(histories))
	for i, h := range histories {
		switch {
		case h.Role == RoleAssistant:
			messages = append(messages, openai.AssistantMessage(h.Content))
		case imageURL != "" && i == len(histories)-1:
			messages = append(messages, buildImageMessage(h.Content, imageURL))
		default:
			messages = append(messages, openai.UserMessage(h.Content))
		}
	}
	return messages
}

// buildImageMessage 构建文字加图片的用户消息
func buildImageMessage(text string, imageURL string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(text),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: imageURL,
		}),
	})
}

// jpegDataURI 把图片内容编码成内联的 data URI
func jpegDataURI(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// describeError 把补全错误转换成给用户看的文字
func describeError(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = gjson.Get(apiErr.RawJSON(), "error.message").String()
		}
		if msg != "" {
			return fmt.Sprintf("Error code: %d - %s", apiErr.StatusCode, msg)
		}
	}
	return err.Error()
}

// 使用内置的 BPE 文件, 避免第一次统计时去网络上下载
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// tiktokenCounter 估算历史占用的Token数, 只统计文字内容
func tiktokenCounter(model string, histories userChatHistory) (int, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, h := range histories {
		total += len(enc.Encode(h.Content, nil, nil))
	}
	return total, nil
}

// splitMessage 按 Telegram 单条消息的长度限制切分文本, 尽量在换行处切开
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		if i := lastIndexRune(runes[:limit], '\n'); i > 0 {
			cut = i + 1
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
