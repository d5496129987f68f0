package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/xiebiao/minipos/internal/domain/user"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
	"github.com/xiebiao/minipos/pkg/jwt"
)

// methodRoles 每个方法允许的角色，未列出的方法只要求登录
var methodRoles = map[string][]user.Role{
	MethodCheckout: {user.RoleAdmin, user.RoleCashier},
	MethodGetSale:  {user.RoleAdmin, user.RoleManager, user.RoleCashier},
}

type identityKey struct{}

// IdentityFromContext 认证拦截器注入的身份
func IdentityFromContext(ctx context.Context) (jwt.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(jwt.Identity)
	return id, ok
}

// AuthInterceptor 读取authorization元数据中的Bearer Token
func AuthInterceptor(jwtManager *jwt.Manager, sessionStore user.SessionStore) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
		token, ok := bearerFromMetadata(ctx)
		if !ok {
			return nil, toStatus(apperrors.ErrUnauthorized)
		}

		blacklisted, err := sessionStore.IsInBlacklist(ctx, token)
		if err != nil {
			return nil, toStatus(err)
		}
		if blacklisted {
			return nil, toStatus(apperrors.ErrTokenExpired.WithMessage("Token已失效，请重新登录"))
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			return nil, toStatus(err)
		}

		if roles, ok := methodRoles[info.FullMethod]; ok && !hasRole(claims.Role, roles) {
			return nil, toStatus(apperrors.ErrForbidden)
		}
		return next(context.WithValue(ctx, identityKey{}, claims.Identity), req)
	}
}

// LoggingInterceptor 记录方法、耗时和状态码
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		zap.L().Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

// RecoveryInterceptor panic转为Internal
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("grpc panic recovered", zap.String("method", info.FullMethod), zap.Any("panic", r), zap.Stack("stack"))
				err = status.Error(codes.Internal, apperrors.ErrInternal.Message)
			}
		}()
		return next(ctx, req)
	}
}

// NewServer 创建gRPC服务器并注册收银服务
func NewServer(srv CheckoutServiceServer, jwtManager *jwt.Manager, sessionStore user.SessionStore, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(),
		LoggingInterceptor(),
		AuthInterceptor(jwtManager, sessionStore),
	))
	s := grpc.NewServer(opts...)
	RegisterCheckoutServiceServer(s, srv)
	return s
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", false
	}
	parts := strings.SplitN(strings.TrimSpace(values[0]), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func hasRole(role string, allowed []user.Role) bool {
	for _, r := range allowed {
		if string(r) == role {
			return true
		}
	}
	return false
}
