package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"devicesession/backend/internal/identity/service"
)

// Client calls the auth service over a gRPC connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WithAccessToken returns an outgoing context authorized with accessToken.
func WithAccessToken(ctx context.Context, accessToken string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", service.AuthScheme+accessToken)
}

func (c *Client) Signin(ctx context.Context, in *SigninRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	out := new(TokenPairResponse)
	if err := c.invoke(ctx, SigninMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	out := new(TokenPairResponse)
	if err := c.invoke(ctx, SignupMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error) {
	out := new(RefreshResponse)
	if err := c.invoke(ctx, RefreshMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	out := new(LogoutResponse)
	if err := c.invoke(ctx, LogoutMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	if err := c.invoke(ctx, InfoMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
