package mischief

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
)

// TrustStore 是通过口令验证的用户集合, 同时追加写入到一个每行一个ID的文本文件
type TrustStore struct {
	path  string
	mu    sync.RWMutex
	users map[int64]struct{}
}

// LoadTrustStore 读取白名单文件. 文件不存在时返回空集合, 非纯数字的行会被跳过
func LoadTrustStore(path string) (*TrustStore, error) {
	s := &TrustStore{
		path:  path,
		users: make(map[int64]struct{}),
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open trusted users file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !isDigits(line) {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		s.users[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trusted users file: %w", err)
	}

	return s, nil
}

// IsTrusted 判断用户是否已经通过验证
func (s *TrustStore) IsTrusted(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok
}

// Trust 将用户加入集合并追加写入文件. 已存在的用户不会重复写入
func (s *TrustStore) Trust(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trusted users file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", userID); err != nil {
		f.Close()
		return fmt.Errorf("append trusted user: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close trusted users file: %w", err)
	}

	s.users[userID] = struct{}{}
	return nil
}

// Len 返回已验证的用户数量
func (s *TrustStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
