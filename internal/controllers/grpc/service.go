package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fracgrad.v1.GradientService"

const calculateMethod = "/" + ServiceName + "/Calculate"

// GradientServiceServer is the server API for the gradient service. Request
// and response are google.protobuf.Struct documents with the same keys as
// the REST API.
type GradientServiceServer interface {
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterGradientServiceServer registers srv with s
func RegisterGradientServiceServer(s grpc.ServiceRegistrar, srv GradientServiceServer) {
	s.RegisterService(&gradientServiceDesc, srv)
}

// Calculate invokes GradientService/Calculate on cc
func Calculate(ctx context.Context, cc grpc.ClientConnInterface, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, calculateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func calculateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradientServiceServer).Calculate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: calculateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GradientServiceServer).Calculate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var gradientServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GradientServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Calculate",
			Handler:    calculateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fracgrad/v1/gradient.proto",
}
