package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// DefaultBcryptCost 生产环境使用的bcrypt cost
const DefaultBcryptCost = 12

// Service 用户领域服务
type Service interface {
	// Register 注册，role为空时为staff
	Register(ctx context.Context, username, password, fullName, role string) (*User, error)

	// Authenticate 校验用户名密码，停用账号视为密码错误
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// HashPassword 供初始化数据使用
	HashPassword(password string) (string, error)
}

type service struct {
	repo Repository
	cost int
}

// NewService 创建用户服务，cost<=0时使用DefaultBcryptCost
func NewService(repo Repository, cost int) Service {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &service{repo: repo, cost: cost}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)

// Register 用户注册
// 1. 用户名3-50位字母数字
// 2. 密码至少6位
// 3. 角色必须合法
func (s *service) Register(ctx context.Context, username, password, fullName, role string) (*User, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)

	if !usernamePattern.MatchString(username) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "用户名应为3-50位字母、数字或_.-")
	}
	if len(password) < 6 || len(password) > 72 {
		return nil, apperrors.ErrWeakPassword
	}
	if fullName == "" {
		fullName = username
	}
	r, ok := ParseRole(role)
	if !ok {
		return nil, apperrors.ErrInvalidRole
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := NewUser(username, hash, fullName, r)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 用户不存在和密码错误返回同一个错误
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperrors.ErrInvalidPassword
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, apperrors.Wrap(err, "密码验证失败")
	}
	return u, nil
}

// HashPassword bcrypt自动加盐
func (s *service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "密码加密失败")
	}
	return string(hash), nil
}
