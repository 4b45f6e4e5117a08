package mischief

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktokenCounterWorksOffline(t *testing.T) {
	histories := userChatHistory{
		{Role: RoleUser, Content: "hello world"},
		{Role: RoleAssistant, Content: "hello world"},
	}

	got, err := tiktokenCounter("gpt-4o", histories)
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	empty, err := tiktokenCounter("gpt-4o-mini", nil)
	require.NoError(t, err)
	assert.Zero(t, empty)

	_, err = tiktokenCounter("mischief-9000", histories)
	assert.Error(t, err)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, splitMessage("abcdefghijk", 5))
	assert.Equal(t, []string{"ab\n", "cdef"}, splitMessage("ab\ncdef", 5))
	assert.Equal(t, []string{"привет", "мир"}, splitMessage("приветмир", 6))
}

func TestCommandName(t *testing.T) {
	cases := map[string]string{
		"/info":                "info",
		"/HELP@mischief_bot":   "help",
		"/balance please":      "balance",
		"/":                    "",
		"/usr/bin is missing?": "usr/bin",
	}
	for in, want := range cases {
		assert.Equal(t, want, commandName(in), in)
	}
}

func TestIsCommand(t *testing.T) {
	m, _ := newTestMischief(t, &fakeCompleter{})

	for _, text := range []string{"/start", "/reset", "/Info@mischief_bot", "/balance now"} {
		assert.True(t, m.isCommand(text), text)
	}
	for _, text := range []string{"hello", "/", "/usr/bin is missing?", "/expelliarmus", "info"} {
		assert.False(t, m.isCommand(text), text)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	m, tg := newTestMischief(t, &fakeCompleter{})

	require.NoError(t, m.executeCommand(context.Background(), m.bot, "expelliarmus", harry, harry, nil))
	assert.True(t, strings.HasPrefix(tg.lastText(t), "🤷 Unknown command."))
}
