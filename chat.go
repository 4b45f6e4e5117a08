package mischief

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handleAiChat 处理一次对话: 记录用户消息, 调用模型, 成功后记录回复
//
// 会话锁在整个调用期间持有, 同一用户的并发消息会排队.
func (m *Mischief) handleAiChat(ctx context.Context, bt *bot.Bot, userID int64, chatID int64, chatText string) error {
	session, release := m.sessions.Acquire(userID)
	defer release()

	histories := session.AppendUser(chatText)

	stopTyping := m.startTypingLoop(ctx, bt, chatID)
	completion, err := m.completer.Complete(ctx, CompletionRequest{
		Profile:  m.config.Text,
		Messages: histories,
	})
	stopTyping()

	var reply string
	if err != nil {
		m.logger.Warn("调用API失败", zap.Int64("UserID", userID), zap.Error(err))
		reply = "⚠️ Error: " + describeError(err)
	} else {
		reply = completion.Text
		session.AppendAssistant(reply)
		m.usage.Add(userID, completion.PromptTokens, completion.CompletionTokens)
	}

	m.logger.Info(
		"会话完成",
		zap.Int64("UserID", userID),
		zap.String("User", chatText),
		zap.String("Bot", reply),
		zap.Int("TotalMessages", len(session.histories)),
		zap.Int("RoundsInMemory", countUserMessages(session.histories)),
	)

	return m.sendReply(ctx, bt, chatID, reply, persistentKeyboard())
}

// startTypingLoop 开启一个 goroutine 持续发送 Typing 状态，返回一个停止函数, 停止函数会等待 goroutine 退出
func (m *Mischief) startTypingLoop(ctx context.Context, bt *bot.Bot, chatID int64) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	ticker := time.NewTicker(m.typingPeriod)

	go func() {
		defer close(stopped)
		fn := func() {
			err := m.sendChatAction(ctx, bt, chatID, models.ChatActionTyping)
			if err != nil {
				m.logger.Error("Action Routine Error", zap.Error(err))
			}
		}
		fn()
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
