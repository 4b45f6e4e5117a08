package mischief

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Bot API 允许机器人下载的最大文件
const maxPhotoBytes = 20 << 20

var ErrPhotoTooLarge = errors.New("photo is too large")

// handlerForPhotoMessage 对图片做一次性的识别, 不读取也不写入会话历史
func (m *Mischief) handlerForPhotoMessage(ctx context.Context, bt *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if !m.trust.IsTrusted(userID) {
		if _, err := m.sendMessageTo(ctx, bt, chatID, msgAskPasswordPhoto, nil); err != nil {
			m.logger.Error("发送口令提示失败", zap.Error(err))
		}
		return
	}

	caption := update.Message.Caption
	if strings.TrimSpace(caption) == "" {
		caption = m.config.PhotoPrompt
	}

	// 最后一个尺寸分辨率最高
	photo := update.Message.Photo[len(update.Message.Photo)-1]
	data, err := m.downloadTelegramFile(ctx, bt, photo.FileID)
	if err != nil {
		m.logger.Error("下载图片失败", zap.Int64("UserID", userID), zap.String("FileID", photo.FileID), zap.Error(err))
		m.sendError(ctx, bt, chatID, err)
		return
	}

	stopTyping := m.startTypingLoop(ctx, bt, chatID)
	completion, err := m.completer.Complete(ctx, CompletionRequest{
		Profile:  m.config.Photo,
		Messages: userChatHistory{{Role: RoleUser, Content: caption}},
		ImageURL: jpegDataURI(data),
	})
	stopTyping()

	var reply string
	if err != nil {
		m.logger.Warn("图片识别失败", zap.Int64("UserID", userID), zap.Error(err))
		reply = "⚠️ Error processing image: " + describeError(err)
	} else {
		reply = completion.Text
		m.usage.Add(userID, completion.PromptTokens, completion.CompletionTokens)
	}

	m.logger.Info(
		"图片识别完成",
		zap.Int64("UserID", userID),
		zap.String("Caption", caption),
		zap.Int("Bytes", len(data)),
		zap.String("Bot", reply),
	)

	if err := m.sendReply(ctx, bt, chatID, reply, persistentKeyboard()); err != nil {
		m.logger.Error("发送回复失败", zap.Error(err))
	}
}

// downloadTelegramFile 通过 getFile 获取下载链接并读取文件内容
func (m *Mischief) downloadTelegramFile(ctx context.Context, bt *bot.Bot, fileID string) ([]byte, error) {
	file, err := bt.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bt.FileDownloadLink(file), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.photoLimit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > m.photoLimit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPhotoTooLarge, m.photoLimit)
	}
	return data, nil
}
