package mischief

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testToken    = "test-token"
	testPassword = "swordfish"
)

type telegramCall struct {
	Method string
	Values url.Values
}

// fakeTelegram 模拟 Bot API, 记录每一次调用
type fakeTelegram struct {
	srv   *httptest.Server
	photo []byte
	// fileStatus 非零时文件下载返回该状态码
	fileStatus int
	// failGetFile 为真时 getFile 返回 Bot API 错误
	failGetFile bool

	mu    sync.Mutex
	calls []telegramCall
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{photo: []byte("\xff\xd8\xff\xe0 not really a jpeg")}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot") {
		if f.fileStatus != 0 {
			http.Error(w, http.StatusText(f.fileStatus), f.fileStatus)
			return
		}
		_, _ = w.Write(f.photo)
		return
	}

	values := url.Values{}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			values[k] = v
		}
	}

	method := path.Base(r.URL.Path)
	f.mu.Lock()
	f.calls = append(f.calls, telegramCall{Method: method, Values: values})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if method == "getFile" && f.failGetFile {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: invalid file_id"}`)
		return
	}

	result := "true"
	switch method {
	case "sendMessage":
		result = `{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}`
	case "getFile":
		result = fmt.Sprintf(`{"file_id":%q,"file_unique_id":"u1","file_path":"photos/file_1.jpg"}`, values.Get("file_id"))
	}

	fmt.Fprintf(w, `{"ok":true,"result":%s}`, result)
}

func (f *fakeTelegram) callsOf(method string) []telegramCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []telegramCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// sentTexts 返回所有 sendMessage 的文字
func (f *fakeTelegram) sentTexts() []string {
	var out []string
	for _, c := range f.callsOf("sendMessage") {
		out = append(out, c.Values.Get("text"))
	}
	return out
}

func (f *fakeTelegram) lastText(t *testing.T) string {
	t.Helper()
	texts := f.sentTexts()
	require.NotEmpty(t, texts, "no message was sent")
	return texts[len(texts)-1]
}

// fakeCompleter 记录请求, 默认按顺序返回 "reply N"
type fakeCompleter struct {
	mu       sync.Mutex
	requests []CompletionRequest
	respond  func(n int, req CompletionRequest) (*Completion, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	f.mu.Lock()
	req.Messages = append(userChatHistory(nil), req.Messages...)
	f.requests = append(f.requests, req)
	n := len(f.requests)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(n, req)
	}
	return &Completion{Text: fmt.Sprintf("reply %d", n), PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeCompleter) calls() []CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletionRequest(nil), f.requests...)
}

func newTestMischief(t *testing.T, completer Completer, mutate ...func(*Config)) (*Mischief, *fakeTelegram) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Password = testPassword
	cfg.TrustedUsersFile = filepath.Join(t.TempDir(), "trusted_users.txt")
	for _, fn := range mutate {
		fn(&cfg)
	}

	tg := newFakeTelegram(t)
	m := New(context.Background(), zaptest.NewLogger(t), completer, testToken, cfg,
		bot.WithServerURL(tg.srv.URL),
		bot.WithSkipGetMe(),
	)
	m.typingPeriod = time.Hour
	m.countTokens = func(string, userChatHistory) (int, error) { return 42, nil }

	require.NoError(t, m.setupStore())
	require.NoError(t, m.setupBot())
	return m, tg
}

func trustUser(t *testing.T, m *Mischief, userID int64) {
	t.Helper()
	require.NoError(t, m.trust.Trust(userID))
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID, Username: "harry"},
			Chat: models.Chat{ID: userID},
			Text: text,
		},
	}
}

func photoUpdate(userID int64, caption string, fileIDs ...string) *models.Update {
	sizes := make([]models.PhotoSize, 0, len(fileIDs))
	for i, id := range fileIDs {
		sizes = append(sizes, models.PhotoSize{FileID: id, FileUniqueID: id, Width: 90 * (i + 1), Height: 90 * (i + 1)})
	}
	return &models.Update{
		Message: &models.Message{
			ID:      1,
			From:    &models.User{ID: userID, Username: "harry"},
			Chat:    models.Chat{ID: userID},
			Caption: caption,
			Photo:   sizes,
		},
	}
}

func callbackUpdate(userID int64, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: userID},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: 7, Chat: models.Chat{ID: userID}},
			},
			Data: data,
		},
	}
}

func (m *Mischief) send(update *models.Update) {
	if update.CallbackQuery != nil {
		m.handleCallback(context.Background(), m.bot, update)
		return
	}
	m.handleUpdate(context.Background(), m.bot, update)
}
