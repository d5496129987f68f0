package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// 服务与方法全名
const (
	CheckoutServiceName = "minipos.v1.CheckoutService"

	MethodCheckout = "/" + CheckoutServiceName + "/Checkout"
	MethodGetSale  = "/" + CheckoutServiceName + "/GetSale"
)

// CheckoutServiceServer 收银gRPC服务
//
// 请求与响应都是google.protobuf.Struct，字段与HTTP接口一致：
//
//	Checkout: {items: [{id, qty}], paid, idempotency_key?} -> Sale
//	GetSale:  {invoice_no} -> Sale
type CheckoutServiceServer interface {
	Checkout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CheckoutServiceDesc 手写的服务描述，等价于protoc-gen-go-grpc生成的代码
var CheckoutServiceDesc = grpc.ServiceDesc{
	ServiceName: CheckoutServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unaryHandler(MethodCheckout, CheckoutServiceServer.Checkout)},
		{MethodName: "GetSale", Handler: unaryHandler(MethodGetSale, CheckoutServiceServer.GetSale)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "minipos/v1/checkout.proto",
}

// RegisterCheckoutServiceServer 注册到gRPC服务器
func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&CheckoutServiceDesc, srv)
}

type structMethod func(CheckoutServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// methodHandler 与grpc.MethodDesc.Handler的签名一致
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryHandler(fullMethod string, call structMethod) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CheckoutServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CheckoutServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CheckoutClient 客户端，供其他服务和测试调用
type CheckoutClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutClient(cc grpc.ClientConnInterface) *CheckoutClient {
	return &CheckoutClient{cc: cc}
}

func (c *CheckoutClient) Checkout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodCheckout, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) GetSale(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetSale, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
