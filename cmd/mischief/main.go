package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/chhongzh/mischief"
	"github.com/chhongzh/mischief/internal/config"
)

func main() {
	envFile := flag.String("env-file", ".env", "path to the .env file")
	debug := flag.Bool("debug", false, "enable development logging")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(*debug || cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	client := openai.NewClient(opts...)

	m := mischief.New(ctx, logger, mischief.NewOpenAICompleter(&client), cfg.TelegramBotToken, botConfig(cfg))

	logger.Info("✅ Bot is starting...")
	closeCh, err := m.Start()
	if err != nil {
		logger.Fatal("启动失败", zap.Error(err))
	}

	<-closeCh
	logger.Info("Bot已停止")
}

func botConfig(cfg *config.Config) mischief.Config {
	c := mischief.DefaultConfig()
	c.Password = cfg.AuthPassword
	c.TrustedUsersFile = cfg.TrustedUsersFile
	c.MaxExchanges = cfg.MaxExchanges
	c.Text = mischief.Profile{Model: cfg.Model, Temperature: cfg.TextTemperature, MaxTokens: cfg.TextMaxTokens}
	c.Photo = mischief.Profile{Model: cfg.Model, Temperature: cfg.PhotoTemperature, MaxTokens: cfg.PhotoMaxTokens}
	c.PhotoPrompt = cfg.PhotoPrompt
	c.InputCostPer1K = cfg.InputCostPer1K
	c.OutputCostPer1K = cfg.OutputCostPer1K
	c.CheckInitTimeout = 10 * time.Second
	return c
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
