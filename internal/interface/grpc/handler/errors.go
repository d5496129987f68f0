package handler

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// ErrorDomain errdetails.ErrorInfo中的domain
const ErrorDomain = "minipos"

// toStatus AppError转gRPC状态
// ErrorInfo.Reason为业务错误码，参数错误额外带BadRequest
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	appErr := apperrors.GetAppError(err)
	message := appErr.Message
	if appErr.Code >= apperrors.ErrCodeInternal {
		zap.L().Error("grpc request failed", zap.Int("code", appErr.Code), zap.String("message", appErr.Message), zap.Error(appErr.Err))
		if appErr.Code != apperrors.ErrCodeTransient {
			message = apperrors.ErrInternal.Message
		}
	}

	st := status.New(grpcCode(appErr.Code), message)
	info := &errdetails.ErrorInfo{
		Reason:   strconv.Itoa(appErr.Code),
		Domain:   ErrorDomain,
		Metadata: map[string]string{"message": message},
	}
	var (
		detailed *status.Status
		derr     error
	)
	if appErr.Code == apperrors.ErrCodeInvalidParams || appErr.Code == apperrors.ErrCodeBindError {
		detailed, derr = st.WithDetails(info, &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{Description: message}},
		})
	} else {
		detailed, derr = st.WithDetails(info)
	}
	if derr == nil {
		st = detailed
	}
	return st.Err()
}

// BusinessCode 从gRPC错误中取回业务错误码，没有ErrorInfo时返回0
func BusinessCode(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			code, _ := strconv.Atoi(info.GetReason())
			return code
		}
	}
	return 0
}

func grpcCode(code int) codes.Code {
	switch code {
	case apperrors.ErrCodeInvalidParams, apperrors.ErrCodeBindError:
		return codes.InvalidArgument
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeInvalidToken, apperrors.ErrCodeTokenExpired, apperrors.ErrCodeInvalidPassword:
		return codes.Unauthenticated
	case apperrors.ErrCodeForbidden:
		return codes.PermissionDenied
	case apperrors.ErrCodeCheckoutInProgress:
		return codes.Aborted
	case apperrors.ErrCodeTransient:
		return codes.Unavailable
	}
	switch {
	case code >= 40400 && code < 40500:
		return codes.NotFound
	case code >= apperrors.ErrCodeInternal:
		return codes.Internal
	default:
		// 库存不足、少付、商品下架、幂等键冲突等业务拒绝
		return codes.FailedPrecondition
	}
}
