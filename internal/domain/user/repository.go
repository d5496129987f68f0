package user

import (
	"context"
)

// Repository 用户仓储接口
// 用户名唯一性由数据库唯一索引保证，冲突时返回errors.ErrUsernameDuplicate
type Repository interface {
	Create(ctx context.Context, user *User) error

	// FindByID 不存在时返回errors.ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByUsername 不存在时返回errors.ErrUserNotFound
	FindByUsername(ctx context.Context, username string) (*User, error)
}
