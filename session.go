package mischief

import "sync"

// Session 是单个用户的会话, 只能在持有锁时访问
type Session struct {
	mu        sync.Mutex
	maxRounds int
	histories userChatHistory
}

// AppendUser 追加用户消息并裁剪到最近的 maxRounds 轮, 返回本次请求要发送的历史副本
func (s *Session) AppendUser(content string) userChatHistory {
	s.histories = append(s.histories, Turn{Role: RoleUser, Content: content})
	s.histories = trimHistoryToMaxRounds(s.histories, s.maxRounds)
	return s.Turns()
}

// AppendAssistant 追加模型的回复
func (s *Session) AppendAssistant(content string) {
	s.histories = append(s.histories, Turn{Role: RoleAssistant, Content: content})
}

// Turns 返回历史的副本
func (s *Session) Turns() userChatHistory {
	out := make(userChatHistory, len(s.histories))
	copy(out, s.histories)
	return out
}

func (s *Session) clear() {
	s.histories = nil
}

// SessionTable 按用户ID保存会话. 同一用户的消息通过会话锁串行处理, 不同用户互不影响
type SessionTable struct {
	maxRounds int
	mu        sync.Mutex
	sessions  map[int64]*Session
}

// NewSessionTable 创建会话表, maxRounds <= 0 表示不限制
func NewSessionTable(maxRounds int) *SessionTable {
	return &SessionTable{
		maxRounds: maxRounds,
		sessions:  make(map[int64]*Session),
	}
}

// getSessionOrInit 获取或初始化用户会话
func (t *SessionTable) getSessionOrInit(userID int64) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[userID]
	if !ok {
		session = &Session{maxRounds: t.maxRounds}
		t.sessions[userID] = session
	}
	return session
}

// Acquire 锁定用户会话, 调用方必须调用返回的 release
func (t *SessionTable) Acquire(userID int64) (*Session, func()) {
	session := t.getSessionOrInit(userID)
	session.mu.Lock()
	return session, session.mu.Unlock
}

// Reset 清空用户的会话历史
func (t *SessionTable) Reset(userID int64) {
	session, release := t.Acquire(userID)
	defer release()
	session.clear()
}

// Snapshot 返回用户当前历史的副本
func (t *SessionTable) Snapshot(userID int64) userChatHistory {
	session, release := t.Acquire(userID)
	defer release()
	return session.Turns()
}

// MaxRounds 返回配置的最大轮数
func (t *SessionTable) MaxRounds() int {
	return t.maxRounds
}

func isUserMessage(turn Turn) bool {
	return turn.Role == RoleUser
}

// trimHistoryToMaxRounds 只保留最近的 max 轮, 每一轮从一条用户消息开始
func trimHistoryToMaxRounds(histories userChatHistory, max int) userChatHistory {
	if max <= 0 {
		return histories
	}
	rounds := 0
	start := 0
	for i := len(histories) - 1; i >= 0; i-- {
		if isUserMessage(histories[i]) {
			rounds++
			if rounds == max {
				start = i
				break
			}
		}
	}
	if rounds < max {
		return histories
	}
	// 重新分配, 避免底层数组无限增长
	return append(userChatHistory(nil), histories[start:]...)
}

func countUserMessages(histories userChatHistory) int {
	count := 0
	for _, h := range histories {
		if isUserMessage(h) {
			count++
		}
	}
	return count
}
