// Package config 从 .env 和环境变量加载机器人的配置
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY,notEmpty"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,notEmpty"`
	AuthPassword     string `env:"AUTH_PASSWORD,notEmpty"`

	TrustedUsersFile string `env:"TRUSTED_USERS_FILE" envDefault:"trusted_users.txt"`
	MaxExchanges     int    `env:"MAX_EXCHANGES" envDefault:"10"`

	Model            string  `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	TextTemperature  float64 `env:"TEXT_TEMPERATURE" envDefault:"0.7"`
	PhotoTemperature float64 `env:"PHOTO_TEMPERATURE" envDefault:"0.5"`
	TextMaxTokens    int64   `env:"TEXT_MAX_TOKENS" envDefault:"1000"`
	PhotoMaxTokens   int64   `env:"PHOTO_MAX_TOKENS" envDefault:"1000"`
	PhotoPrompt      string  `env:"PHOTO_PROMPT" envDefault:"What’s in this image?"`

	InputCostPer1K  float64 `env:"INPUT_COST_PER_1K" envDefault:"0.005"`
	OutputCostPer1K float64 `env:"OUTPUT_COST_PER_1K" envDefault:"0.015"`

	Debug bool `env:"DEBUG"`
}

// Load 读取 envFile(不存在时忽略), 再用环境变量覆盖并校验
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.MaxExchanges < 0 {
		return nil, fmt.Errorf("MAX_EXCHANGES must not be negative, got %d", cfg.MaxExchanges)
	}
	if cfg.TextMaxTokens <= 0 || cfg.PhotoMaxTokens <= 0 {
		return nil, errors.New("TEXT_MAX_TOKENS and PHOTO_MAX_TOKENS must be positive")
	}

	return cfg, nil
}
