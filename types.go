package mischief

import (
	"context"

	"github.com/go-telegram/bot"
)

type userChatHistory = []Turn
type commandHandlerFunc = func(context.Context, *bot.Bot, int64, int64, []string) error
type tokenCounter = func(model string, histories userChatHistory) (int, error)
