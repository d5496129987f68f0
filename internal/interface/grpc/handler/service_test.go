package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type echoServer struct{}

func (echoServer) Checkout(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"method": "Checkout", "paid": req.Fields["paid"].GetNumberValue()})
}

func (echoServer) GetSale(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"method": "GetSale", "invoice_no": req.Fields["invoice_no"].GetStringValue()})
}

// decodeFrom 模拟gRPC解码器，把req复制到目标消息
func decodeFrom(req *structpb.Struct) func(interface{}) error {
	return func(v interface{}) error {
		proto.Merge(v.(*structpb.Struct), req)
		return nil
	}
}

func TestCheckoutServiceDesc_Handlers(t *testing.T) {
	require.Len(t, CheckoutServiceDesc.Methods, 2)
	byName := map[string]grpc.MethodDesc{}
	for _, m := range CheckoutServiceDesc.Methods {
		byName[m.MethodName] = m
	}

	req, err := structpb.NewStruct(map[string]interface{}{"paid": 20000, "invoice_no": "TRX-20240315-143005-042"})
	require.NoError(t, err)

	t.Run("无拦截器直接调用", func(t *testing.T) {
		out, err := byName["Checkout"].Handler(echoServer{}, context.Background(), decodeFrom(req), nil)
		require.NoError(t, err)
		resp := out.(*structpb.Struct)
		assert.Equal(t, "Checkout", resp.Fields["method"].GetStringValue())
		assert.Equal(t, float64(20000), resp.Fields["paid"].GetNumberValue())
	})

	t.Run("经过拦截器并携带方法全名", func(t *testing.T) {
		var seen string
		interceptor := func(ctx context.Context, in interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			seen = info.FullMethod
			return handler(ctx, in)
		}
		out, err := byName["GetSale"].Handler(echoServer{}, context.Background(), decodeFrom(req), interceptor)
		require.NoError(t, err)
		assert.Equal(t, MethodGetSale, seen)
		assert.Equal(t, "TRX-20240315-143005-042", out.(*structpb.Struct).Fields["invoice_no"].GetStringValue())
	})
}
