package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/domain/user"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
	"github.com/xiebiao/minipos/pkg/jwt"
)

// LoginUseCase 用户登录用例
// 校验密码，签发Token对，并把会话写入会话存储
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore user.SessionStore
	sessionTTL   time.Duration
}

// NewLoginUseCase 创建登录用例，sessionTTL应与Refresh Token有效期一致
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore user.SessionStore,
	sessionTTL time.Duration,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	tokenPair, err := uc.jwtManager.GenerateToken(identityOf(u))
	if err != nil {
		return nil, err
	}

	// 会话保存失败不影响登录
	session := user.Session{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		LoginAt:  time.Now(),
		IP:       req.IP,
	}
	if err := uc.sessionStore.SaveSession(ctx, session, uc.sessionTTL); err != nil {
		zap.L().Warn("保存会话失败", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	zap.L().Info("用户登录", zap.String("username", u.Username), zap.String("role", string(u.Role)), zap.String("ip", req.IP))

	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	sessionStore user.SessionStore
	jwtManager   *jwt.Manager
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore user.SessionStore, jwtManager *jwt.Manager) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, jwtManager: jwtManager}
}

// Execute 删除会话，并将Access Token加入黑名单直到其自然过期
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, accessToken string) error {
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}

	ttl := uc.jwtManager.AccessTokenTTL()
	if claims, err := uc.jwtManager.ParseToken(accessToken); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, ttl)
}

// MeUseCase 当前用户
type MeUseCase struct {
	users user.Repository
}

func NewMeUseCase(users user.Repository) *MeUseCase {
	return &MeUseCase{users: users}
}

// Execute 账号被删除或停用时视为未登录
func (uc *MeUseCase) Execute(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	info := toUserInfo(u)
	return &info, nil
}

// RefreshUseCase 用Refresh Token换新的Access Token，角色按当前库中数据签发
type RefreshUseCase struct {
	users      user.Repository
	jwtManager *jwt.Manager
}

func NewRefreshUseCase(users user.Repository, jwtManager *jwt.Manager) *RefreshUseCase {
	return &RefreshUseCase{users: users, jwtManager: jwtManager}
}

func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (string, error) {
	claims, err := uc.jwtManager.ParseToken(refreshToken)
	if err != nil {
		return "", err
	}
	u, err := uc.users.FindByID(ctx, claims.UserID)
	if err != nil || !u.IsActive {
		return "", apperrors.ErrInvalidToken
	}
	return uc.jwtManager.RefreshAccessToken(refreshToken, identityOf(u))
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string
	Password string
	IP       string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

func identityOf(u *user.User) jwt.Identity {
	return jwt.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		FullName: u.FullName,
	}
}
