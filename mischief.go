// Package mischief 是一个用密码保护的 Telegram 到 OpenAI 的对话代理
package mischief

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// Config 用于配置Mischief实例的模型参数、历史长度、口令和计费费率
type Config struct {
	Password         string
	TrustedUsersFile string
	MaxExchanges     int

	Text  Profile
	Photo Profile

	PhotoPrompt     string
	InputCostPer1K  float64
	OutputCostPer1K float64

	CheckInitTimeout time.Duration
}

// DefaultConfig 返回默认配置(口令需要调用方填写)
func DefaultConfig() Config {
	return Config{
		TrustedUsersFile: "trusted_users.txt",
		MaxExchanges:     10,
		Text:             Profile{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 1000},
		Photo:            Profile{Model: "gpt-4o", Temperature: 0.5, MaxTokens: 1000},
		PhotoPrompt:      "What’s in this image?",
		InputCostPer1K:   0.005,
		OutputCostPer1K:  0.015,
	}
}

// Mischief 是Mischief的实例
type Mischief struct {
	ctx       context.Context
	logger    *zap.Logger
	completer Completer
	bot       *bot.Bot
	botToken  string
	botOpts   []bot.Option
	config    Config

	trust    *TrustStore
	sessions *SessionTable
	usage    *UsageLedger

	countTokens  tokenCounter
	typingPeriod time.Duration
	photoLimit   int64
}

// New 创建一个新的Mischief实例
//
// botOpts 会追加在默认的 Option 之后, 主要用于替换 Telegram 服务器地址.
func New(ctx context.Context, logger *zap.Logger, completer Completer, botToken string, cfg Config, botOpts ...bot.Option) *Mischief {
	return &Mischief{
		ctx:          ctx,
		logger:       logger.Named("Mischief"),
		completer:    completer,
		botToken:     botToken,
		botOpts:      botOpts,
		config:       cfg,
		sessions:     NewSessionTable(cfg.MaxExchanges),
		usage:        NewUsageLedger(),
		countTokens:  tiktokenCounter,
		typingPeriod: 6 * time.Second,
		photoLimit:   maxPhotoBytes,
	}
}

// Start 启动Telegram Bot并返回一个在停止时关闭的通道
func (m *Mischief) Start() (<-chan struct{}, error) {
	if err := m.setupStore(); err != nil {
		return nil, err
	}

	if err := m.setupBot(); err != nil {
		return nil, err
	}

	closeCh := make(chan struct{})
	go func() {
		m.bot.Start(m.ctx)
		close(closeCh)
	}()

	return closeCh, nil
}
