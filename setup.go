package mischief

import (
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func (m *Mischief) setupBot() error {
	opts := []bot.Option{
		bot.WithDefaultHandler(m.handleUpdate),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, m.handleCallback),
		bot.WithErrorsHandler(func(err error) {
			m.logger.Error("Bot错误", zap.Error(err))
		}),
	}
	if m.config.CheckInitTimeout > 0 {
		opts = append(opts, bot.WithCheckInitTimeout(m.config.CheckInitTimeout))
	}
	opts = append(opts, m.botOpts...)

	bt, err := bot.New(m.botToken, opts...)
	if err != nil {
		return err
	}

	m.bot = bt
	m.logger.Info("初始化Bot成功")

	return nil
}

func (m *Mischief) setupStore() error {
	store, err := LoadTrustStore(m.config.TrustedUsersFile)
	if err != nil {
		return err
	}

	m.trust = store
	m.logger.Info("加载白名单成功",
		zap.String("File", m.config.TrustedUsersFile),
		zap.Int("Users", store.Len()),
	)

	return nil
}
