package user

import (
	"context"
	"time"
)

// Session 登录会话（存于Redis，有效期同Refresh Token）
type Session struct {
	UserID   uint
	Username string
	Role     Role
	LoginAt  time.Time
	IP       string
}

// SessionStore 会话与Token黑名单存储
type SessionStore interface {
	SaveSession(ctx context.Context, session Session, ttl time.Duration) error

	// GetSession 会话不存在或已过期返回errors.ErrUnauthorized
	GetSession(ctx context.Context, userID uint) (*Session, error)

	DeleteSession(ctx context.Context, userID uint) error

	// AddToBlacklist ttl应取Token剩余有效期，过期后自动清除
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error

	IsInBlacklist(ctx context.Context, token string) (bool, error)
}
