package mischief

// Role 是一条对话消息的角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 是会话历史中的一条消息
type Turn struct {
	Role    Role
	Content string
}

// Usage 是一个用户累计消耗的Token
type Usage struct {
	Input  int64
	Output int64
}

func (u Usage) Total() int64 {
	return u.Input + u.Output
}
