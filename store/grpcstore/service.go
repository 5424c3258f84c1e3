// Package grpcstore exposes a store.Store over gRPC and consumes one as a
// client, so tools can push attestation bytes to a shared daemon.
package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AttestationStoreServer is the server API for the store gRPC service.
//
// Protobuf well-known wrapper types keep this package free of a
// protoc/codegen toolchain: Put takes the raw attestation bytes and returns
// the CID string, Get is the inverse, Has reports presence.
type AttestationStoreServer interface {
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedAttestationStoreServer can be embedded for forward
// compatible implementations.
type UnimplementedAttestationStoreServer struct{}

func (UnimplementedAttestationStoreServer) Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedAttestationStoreServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedAttestationStoreServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}

// RegisterAttestationStoreServer registers the service on a gRPC server.
func RegisterAttestationStoreServer(s grpc.ServiceRegistrar, srv AttestationStoreServer) {
	s.RegisterService(&AttestationStore_ServiceDesc, srv)
}

// AttestationStoreClient is the client API for the store gRPC service.
type AttestationStoreClient interface {
	Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type storeClient struct{ cc grpc.ClientConnInterface }

// NewAttestationStoreClient returns a client bound to cc.
func NewAttestationStoreClient(cc grpc.ClientConnInterface) AttestationStoreClient {
	return &storeClient{cc: cc}
}

func (c *storeClient) Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/in_toto.store.v1.AttestationStore/Put", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storeClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/in_toto.store.v1.AttestationStore/Get", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storeClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/in_toto.store.v1.AttestationStore/Has", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _AttestationStore_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttestationStoreServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/in_toto.store.v1.AttestationStore/Put"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AttestationStoreServer).Put(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _AttestationStore_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttestationStoreServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/in_toto.store.v1.AttestationStore/Get"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AttestationStoreServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _AttestationStore_Has_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttestationStoreServer).Has(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/in_toto.store.v1.AttestationStore/Has"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AttestationStoreServer).Has(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// AttestationStore_ServiceDesc is the grpc.ServiceDesc for the service.
var AttestationStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "in_toto.store.v1.AttestationStore",
	HandlerType: (*AttestationStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: _AttestationStore_Put_Handler},
		{MethodName: "Get", Handler: _AttestationStore_Get_Handler},
		{MethodName: "Has", Handler: _AttestationStore_Has_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "attestation_store.proto",
}
