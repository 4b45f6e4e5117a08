package mischief

import (
	"fmt"
	"sync"
)

// UsageLedger 按用户累计输入和输出Token, 只存在于进程内存中
type UsageLedger struct {
	mu    sync.Mutex
	users map[int64]Usage
}

func NewUsageLedger() *UsageLedger {
	return &UsageLedger{users: make(map[int64]Usage)}
}

// Add 累加一次成功调用的Token数, 负数会被忽略
func (l *UsageLedger) Add(userID int64, input, output int64) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.users[userID]
	u.Input += max(input, 0)
	u.Output += max(output, 0)
	l.users[userID] = u
	return u
}

// Get 返回用户当前的累计用量
func (l *UsageLedger) Get(userID int64) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users[userID]
}

// Rates 是每 1K Token 的美元单价
type Rates struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost 估算费用, 仅供参考
func (r Rates) Cost(u Usage) float64 {
	in := float64(u.Input) * r.InputPer1K / 1000
	out := float64(u.Output) * r.OutputPer1K / 1000
	return in + out
}

// FormatCost 生成展示给用户的用量和费用文本
func (r Rates) FormatCost(u Usage) string {
	return fmt.Sprintf("💰 Tokens used: %d (in: %d, out: %d)\n≈ $%.4f total",
		u.Total(), u.Input, u.Output, r.Cost(u))
}
