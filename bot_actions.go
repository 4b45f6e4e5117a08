package mischief

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	buttonCheckBalance    = "💸 Check balance"
	buttonMischiefManaged = "🗺 Mischief managed"

	callbackReset   = "reset"
	callbackBalance = "balance"

	// Telegram 单条消息的最大长度
	maxMessageLength = 4096
)

// persistentKeyboard 是常驻在输入框下方的两个按钮
func persistentKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: buttonCheckBalance}, {Text: buttonMischiefManaged}},
		},
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
}

func inlineActionsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: buttonMischiefManaged, CallbackData: callbackReset},
				{Text: buttonCheckBalance, CallbackData: callbackBalance},
			},
		},
	}
}

func (m *Mischief) sendMessageTo(ctx context.Context, bt *bot.Bot, chatID int64, msg string, markup models.ReplyMarkup) (*models.Message, error) {
	param := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg,
	}
	if markup != nil {
		param.ReplyMarkup = markup
	}
	return bt.SendMessage(ctx, param)
}

// sendReply 发送可能超长的回复, 键盘只挂在最后一段上
func (m *Mischief) sendReply(ctx context.Context, bt *bot.Bot, chatID int64, reply string, markup models.ReplyMarkup) error {
	parts := splitMessage(reply, maxMessageLength)
	for i, part := range parts {
		var mk models.ReplyMarkup
		if i == len(parts)-1 {
			mk = markup
		}
		if _, err := m.sendMessageTo(ctx, bt, chatID, part, mk); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mischief) sendChatAction(ctx context.Context, bt *bot.Bot, chatID int64, newAction models.ChatAction) error {
	_, err := bt.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: newAction,
	})

	return err
}

func (m *Mischief) sendError(ctx context.Context, bt *bot.Bot, chatID int64, err error) {
	m.logger.Info("发送错误", zap.Error(err))

	_, err = m.sendMessageTo(ctx, bt, chatID, "⚠️ Error: "+err.Error(), nil)
	if err != nil {
		m.logger.Error("在发送错误时遇到错误!", zap.Error(err))
		return
	}
}
