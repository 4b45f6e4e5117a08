package mischief

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func (m *Mischief) commandHandlers() map[string]commandHandlerFunc {
	return map[string]commandHandlerFunc{
		"start":   m.handleStart,
		"help":    m.handleHelp,
		"info":    m.handleInfo,
		"reset":   m.handleReset,
		"balance": m.handleBalance,
	}
}

// commandName 取出 "/name@bot args" 中的 name, 统一成小写
func commandName(text string) string {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return ""
	}
	// 群组里的命令会带上 @botname
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// isCommand 只有以已注册的命令开头的消息才算命令, 其余以 "/" 开头的文字照常发给模型
func (m *Mischief) isCommand(text string) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}
	_, ok := m.commandHandlers()[commandName(text)]
	return ok
}

// executeCommand 执行命令
func (m *Mischief) executeCommand(ctx context.Context, bt *bot.Bot, command string, chatID int64, userID int64, args []string) error {
	if handler, ok := m.commandHandlers()[command]; ok {
		return handler(ctx, bt, chatID, userID, args)
	}

	// 默认处理未知命令
	_, err := m.sendMessageTo(ctx, bt, chatID, "🤷 Unknown command. Try /help.", nil)
	return err
}

func (m *Mischief) handleStart(ctx context.Context, bt *bot.Bot, chatID int64, _ int64, _ []string) error {
	_, err := m.sendMessageTo(ctx, bt, chatID, "🪄 I solemnly swear that I am up to no good. Ask me anything.", persistentKeyboard())
	return err
}

func (m *Mischief) handleHelp(ctx context.Context, bt *bot.Bot, chatID int64, _ int64, _ []string) error {
	help := `Send me any text and I will answer, keeping the last %d exchanges in mind.
Send a photo (with an optional caption) and I will describe it.

/help show this message
/info show what I remember
/balance show tokens used and the estimated cost
/reset wipe the conversation memory`
	_, err := m.sendMessageTo(ctx, bt, chatID, fmt.Sprintf(help, m.sessions.MaxRounds()), inlineActionsKeyboard())
	return err
}

func (m *Mischief) handleInfo(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	msg := `ℹ️ Session info

Rounds in memory: %d
Max rounds: %s
Messages in memory: %d
Approx. tokens in memory: %s
Model: %s`

	histories := m.sessions.Snapshot(userID)

	maxRoundsStr := "unlimited"
	if m.sessions.MaxRounds() > 0 {
		maxRoundsStr = fmt.Sprintf("%d", m.sessions.MaxRounds())
	}

	tokensStr := "n/a"
	if tokens, err := m.countTokens(m.config.Text.Model, histories); err != nil {
		m.logger.Warn("统计Token失败", zap.Error(err))
	} else {
		tokensStr = fmt.Sprintf("%d", tokens)
	}

	_, err := m.sendMessageTo(
		ctx,
		bt,
		chatID,
		fmt.Sprintf(
			msg,
			countUserMessages(histories),
			maxRoundsStr,
			len(histories),
			tokensStr,
			m.config.Text.Model,
		),
		inlineActionsKeyboard(),
	)
	return err
}

func (m *Mischief) handleReset(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	return m.resetHistory(ctx, bt, chatID, userID)
}

func (m *Mischief) handleBalance(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	return m.replyBalance(ctx, bt, chatID, userID)
}

// resetHistory 清空用户的会话历史, 命令, 按钮和回调共用
func (m *Mischief) resetHistory(ctx context.Context, bt *bot.Bot, chatID int64, userID int64) error {
	m.sessions.Reset(userID)
	m.logger.Info("会话已清空", zap.Int64("UserID", userID))

	_, err := m.sendMessageTo(ctx, bt, chatID, msgMemoryWiped, persistentKeyboard())
	return err
}

func (m *Mischief) replyBalance(ctx context.Context, bt *bot.Bot, chatID int64, userID int64) error {
	usage := m.usage.Get(userID)
	_, err := m.sendMessageTo(ctx, bt, chatID, m.rates().FormatCost(usage), persistentKeyboard())
	return err
}

func (m *Mischief) rates() Rates {
	return Rates{
		InputPer1K:  m.config.InputCostPer1K,
		OutputPer1K: m.config.OutputCostPer1K,
	}
}
