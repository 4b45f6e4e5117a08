package mischief

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/chhongzh/shlex"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	msgAskPassword      = "🔒 Please enter the secret password to use this bot."
	msgAskPasswordPhoto = "🔒 Please enter the password first to use this feature."
	msgAuthorized       = "✅ You are now authorized! Mischief managed."
	msgMemoryWiped      = "✨ Memory wiped. Mischief managed!"
)

// handleUpdate 是默认的处理器, 按内容分发消息
func (m *Mischief) handleUpdate(ctx context.Context, bt *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	switch {
	case len(update.Message.Photo) > 0:
		m.handlerForPhotoMessage(ctx, bt, update)
	case update.Message.Text != "":
		m.handlerForTextMessage(ctx, bt, update)
	}
}

func (m *Mischief) handlerForTextMessage(ctx context.Context, bt *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	chatText := update.Message.Text
	userID := update.Message.From.ID

	if !m.trust.IsTrusted(userID) {
		m.handleAuthorization(ctx, bt, chatID, userID, chatText)
		return
	}

	m.logger.Info("收到消息",
		zap.Int64("Chat ID", chatID),
		zap.String("Username", update.Message.From.Username),
		zap.Int64("UserID", userID),
		zap.String("Chat Text", chatText),
	)

	trimmed := strings.TrimSpace(chatText)
	var err error
	switch {
	case trimmed == buttonCheckBalance:
		err = m.replyBalance(ctx, bt, chatID, userID)
	case trimmed == buttonMischiefManaged:
		err = m.resetHistory(ctx, bt, chatID, userID)
	case m.isCommand(trimmed):
		err = m.handleCommand(ctx, bt, chatID, trimmed[1:], userID)
	default:
		err = m.handleAiChat(ctx, bt, userID, chatID, chatText)
	}
	if err != nil {
		m.sendError(ctx, bt, chatID, err)
	}
}

// handleAuthorization 处理未验证用户的消息: 口令正确则加入白名单, 否则提示输入口令
func (m *Mischief) handleAuthorization(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, chatText string) {
	if !m.passwordMatches(chatText) {
		m.logger.Info("未验证的用户", zap.Int64("UserID", userID))
		if _, err := m.sendMessageTo(ctx, bt, chatID, msgAskPassword, nil); err != nil {
			m.logger.Error("发送口令提示失败", zap.Error(err))
		}
		return
	}

	if err := m.trust.Trust(userID); err != nil {
		m.logger.Error("写入白名单失败", zap.Int64("UserID", userID), zap.Error(err))
		m.sendError(ctx, bt, chatID, err)
		return
	}
	m.logger.Info("一名新的用户通过了验证!", zap.Int64("UserID", userID))

	if _, err := m.sendMessageTo(ctx, bt, chatID, msgAuthorized, persistentKeyboard()); err != nil {
		m.logger.Error("发送验证结果失败", zap.Error(err))
	}
}

func (m *Mischief) passwordMatches(text string) bool {
	if m.config.Password == "" {
		return false
	}
	got := []byte(strings.TrimSpace(text))
	return subtle.ConstantTimeCompare(got, []byte(m.config.Password)) == 1
}

// handleCallback 处理内联按钮
func (m *Mischief) handleCallback(ctx context.Context, bt *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	if _, err := bt.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID}); err != nil {
		m.logger.Warn("应答回调失败", zap.Error(err))
	}

	userID := cb.From.ID
	chatID := callbackChatID(cb)

	if !m.trust.IsTrusted(userID) {
		if _, err := m.sendMessageTo(ctx, bt, chatID, msgAskPassword, nil); err != nil {
			m.logger.Error("发送口令提示失败", zap.Error(err))
		}
		return
	}

	var err error
	switch cb.Data {
	case callbackReset:
		err = m.resetHistory(ctx, bt, chatID, userID)
	case callbackBalance:
		err = m.replyBalance(ctx, bt, chatID, userID)
	default:
		m.logger.Warn("未知的回调", zap.String("Data", cb.Data), zap.Int64("UserID", userID))
		return
	}
	if err != nil {
		m.sendError(ctx, bt, chatID, err)
	}
}

func callbackChatID(cb *models.CallbackQuery) int64 {
	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID
	default:
		return cb.From.ID
	}
}

func (m *Mischief) handleCommand(ctx context.Context, bt *bot.Bot, chatID int64, commandLine string, userID int64) error {
	parts, err := shlex.Split(commandLine)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	// 群组里的命令会带上 @botname
	command, _, _ := strings.Cut(parts[0], "@")
	args := parts[1:]

	return m.executeCommand(ctx, bt, strings.ToLower(command), chatID, userID, args)
}
