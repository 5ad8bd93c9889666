package handler

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "devicesession.auth.v1.AuthService"

// Full method names, as seen by interceptors and the access policy.
const (
	SigninMethod  = "/" + ServiceName + "/Signin"
	SignupMethod  = "/" + ServiceName + "/Signup"
	RefreshMethod = "/" + ServiceName + "/Refresh"
	LogoutMethod  = "/" + ServiceName + "/Logout"
	InfoMethod    = "/" + ServiceName + "/Info"
)

// AuthServiceServer is the server API for the auth service.
type AuthServiceServer interface {
	Signin(context.Context, *SigninRequest) (*TokenPairResponse, error)
	Signup(context.Context, *SignupRequest) (*TokenPairResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
}

// RegisterAuthServiceServer registers srv with s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceDesc describes the auth service for grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Signin", Handler: unaryHandler(SigninMethod, AuthServiceServer.Signin)},
		{MethodName: "Signup", Handler: unaryHandler(SignupMethod, AuthServiceServer.Signup)},
		{MethodName: "Refresh", Handler: unaryHandler(RefreshMethod, AuthServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(LogoutMethod, AuthServiceServer.Logout)},
		{MethodName: "Info", Handler: unaryHandler(InfoMethod, AuthServiceServer.Info)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "devicesession/auth/v1",
}

// unaryHandler adapts a typed method to grpc.MethodHandler, running the server's interceptor chain.
func unaryHandler[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
